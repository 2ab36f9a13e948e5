package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/incidentkb/rag-agent/model"
	"go.uber.org/zap"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	maxAnswerTokens  = 1000

	// entries rendered by the deterministic fallback
	fallbackEntries = 3
)

// AnswerComposer turns a retrieval envelope into a final natural-language
// answer via the generation backend, falling back to a templated summary
// when the model call fails.
type AnswerComposer struct {
	client  InvokeModelAPI
	modelID string
}

func NewAnswerComposer(client InvokeModelAPI, modelID string) *AnswerComposer {
	return &AnswerComposer{
		client:  client,
		modelID: modelID,
	}
}

// Compose never fails: any generation error degrades to a fallback built
// from the already-validated envelope data.
func (c *AnswerComposer) Compose(ctx context.Context, query string, envelope model.RetrievalEnvelope) string {
	answer, err := c.invokeModel(ctx, buildPrompt(query, envelope))
	if err != nil {
		logger.Error("answer generation failed, using fallback",
			zap.String("modelId", c.modelID),
			zap.Error(err))
		return fallbackAnswer(envelope)
	}
	return answer
}

func buildPrompt(query string, envelope model.RetrievalEnvelope) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ユーザーの質問: %s\n\n", query)
	fmt.Fprintf(&b, "ナレッジベースからの検索結果: %s\n\n", envelope.Message)
	fmt.Fprintf(&b, "検索結果の詳細:\n%s\n", toJSON(envelope.RawResults))

	if hasExtractedFields(envelope.StructuredResults) {
		fmt.Fprintf(&b, "\n抽出された構造化データ:\n%s\n", toJSON(envelope.StructuredResults))
	}
	if locations := locationSubset(envelope.StructuredResults); len(locations) > 0 {
		fmt.Fprintf(&b, "\n位置情報データ:\n%s\n", toJSON(locations))
	}

	b.WriteString(`
上記の情報を基に、ユーザーの質問に対して日本語で分かりやすく回答してください。
- 構造化データがある場合は、タイトルや座標などの項目を明示してください。
- 位置情報データがある場合は、整理して提示してください。
- 情報が不十分な場合は、その旨を明確に伝えてください。
`)
	return b.String()
}

func hasExtractedFields(results []model.StructuredResult) bool {
	for _, r := range results {
		if r.Title != "" || r.HasCoordinates() {
			return true
		}
	}
	return false
}

// locationSubset reshapes passages carrying a full coordinate pair into a
// compact geolocation view for the prompt.
func locationSubset(results []model.StructuredResult) []map[string]any {
	var locations []map[string]any
	for _, r := range results {
		if !r.HasCoordinates() {
			continue
		}
		title := r.Title
		if title == "" {
			title = "不明"
		}
		locations = append(locations, map[string]any{
			"title":     title,
			"latitude":  *r.Latitude,
			"longitude": *r.Longitude,
			"score":     r.Score,
		})
	}
	return locations
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *AnswerComposer) invokeModel(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxAnswerTokens,
		Messages:         []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal model request: %w", err)
	}

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", err
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("parse model response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return resp.Content[0].Text, nil
}

// fallbackAnswer renders the envelope without model assistance. It only
// reads already-validated local data and cannot fail.
func fallbackAnswer(envelope model.RetrievalEnvelope) string {
	var b strings.Builder
	b.WriteString(envelope.Message)

	for i, r := range envelope.StructuredResults {
		if i >= fallbackEntries {
			break
		}
		title := r.Title
		if title == "" {
			title = "不明"
		}
		fmt.Fprintf(&b, "\n%d. タイトル: %s", i+1, title)
		if r.HasCoordinates() {
			fmt.Fprintf(&b, "\n   位置: 経度 %g, 緯度 %g", *r.Longitude, *r.Latitude)
		}
		fmt.Fprintf(&b, "\n   関連度: %.2f", r.Score)
	}
	return b.String()
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
