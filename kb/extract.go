// Package kb wraps the managed knowledge-base retrieval and answer
// generation backends and the best-effort field extraction applied to
// retrieved passages.
package kb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/incidentkb/rag-agent/model"
)

// Incident records are comma-separated with latitude and longitude in the
// fourth and fifth fields:
//
//	2022/12/2 4:00,晴れ,西東京市柳沢1-10,35.726,139.55391,西東京市での交通事故
const (
	latFieldIndex = 3
	lonFieldIndex = 4
)

// Title patterns are tried in order against the last non-empty line only;
// the first match wins and its first capture group becomes the title.
var titlePatterns = []*regexp.Regexp{
	// explicit labeled fields, value runs to the next comma or line end
	regexp.MustCompile(`(?i)(?:title|タイトル|件名|事故名)[:：]\s*([^,、\n]+)`),
	// "<place>での<incident category>" at end of line
	regexp.MustCompile(`([^,、]+での(?:交通事故|人身事故|物損事故|火災|災害|事件|事故))\s*$`),
	// catch-all: the whole line
	regexp.MustCompile(`^(.+)$`),
}

// Extract pulls a title and a coordinate pair out of free-form passage text.
// It never fails: internal errors degrade to empty fields with a diagnostic
// note. Calling it twice on the same text yields the same result.
func Extract(text string) (fields model.StructuredFields) {
	defer func() {
		if r := recover(); r != nil {
			fields = model.StructuredFields{
				Note: fmt.Sprintf("フィールド抽出中にエラーが発生しました: %v", r),
			}
		}
	}()

	fields.Latitude, fields.Longitude = extractCoordinates(text)

	title := extractTitle(lastNonEmptyLine(text))
	if title == "" {
		return fields
	}

	// Titles are only recorded alongside a valid coordinate pair. A title
	// without location data is demoted to a diagnostic note; coordinates
	// without a title are kept as-is.
	if fields.HasCoordinates() {
		fields.Title = title
	} else {
		fields.Note = fmt.Sprintf("タイトル候補「%s」が見つかりましたが、位置情報が取得できませんでした。", title)
	}
	return fields
}

// extractCoordinates returns the first comma-separated record whose fourth
// and fifth fields both parse as floats. The pair is atomic: if either field
// fails to parse, the record is skipped entirely.
func extractCoordinates(text string) (*float64, *float64) {
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Split(line, ",")
		if len(parts) <= lonFieldIndex {
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[latFieldIndex]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[lonFieldIndex]), 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		return &lat, &lon
	}
	return nil, nil
}

func extractTitle(line string) string {
	if line == "" {
		return ""
	}
	for _, p := range titlePatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func lastNonEmptyLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
