package kb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"
	"github.com/incidentkb/rag-agent/model"
	"go.uber.org/zap"
)

// retrieval parameters.
const (
	numberOfResults = 20
	rawPreviewRunes = 500

	// appended to every query to bias the hybrid search toward the locale
	// and incident domain the knowledge base covers
	searchContextHint = "西東京市 交通事故"
)

// User-facing messages, localized for the knowledge base's audience.
const (
	msgNoResults       = "検索結果が見つかりませんでした。"
	msgEmbeddingAccess = "ナレッジベースの埋め込みモデルへのアクセス権限に問題があります。管理者にお問い合わせください。"
	msgNotFound        = "指定されたナレッジベースまたはデータソースが見つかりません。"
	msgAccessDenied    = "ナレッジベースへのアクセス権限がありません。"
)

// RetrievalAdapter wraps the managed knowledge-base retrieval backend.
type RetrievalAdapter struct {
	client          RetrieveAPI
	knowledgeBaseID string
}

func NewRetrievalAdapter(client RetrieveAPI, knowledgeBaseID string) *RetrievalAdapter {
	return &RetrievalAdapter{
		client:          client,
		knowledgeBaseID: knowledgeBaseID,
	}
}

// Retrieve runs a hybrid search against the knowledge base and normalizes
// the outcome into an envelope. Failures never surface as Go errors; a
// non-empty envelope Error is the authoritative failure signal.
func (a *RetrievalAdapter) Retrieve(ctx context.Context, query string) model.RetrievalEnvelope {
	out, err := async.Await(a.retrieveTask(ctx, query))
	if err != nil {
		return errorEnvelope(err)
	}

	results := out.RetrievalResults
	logger.Info("knowledge base query complete",
		zap.String("knowledgeBaseId", a.knowledgeBaseID),
		zap.Int("resultCount", len(results)))

	envelope := model.RetrievalEnvelope{
		StructuredResults: make([]model.StructuredResult, 0, len(results)),
		RawResults:        make([]model.RawResult, 0, len(results)),
	}

	if len(results) == 0 {
		envelope.Message = msgNoResults
		return envelope
	}
	envelope.Message = fmt.Sprintf("%d件の関連情報が見つかりました。", len(results))

	type passageView struct {
		structured model.StructuredResult
		raw        model.RawResult
	}

	index := 0
	_, err = linq.Pipe2(
		linq.FromSlice(ctx, results),

		linq.Select(func(r types.KnowledgeBaseRetrievalResult) passageView {
			index++
			content := ""
			if r.Content != nil {
				content = aws.ToString(r.Content.Text)
			}
			score := aws.ToFloat64(r.Score)
			source := sourceURI(r.Location)

			return passageView{
				structured: model.StructuredResult{
					StructuredFields: Extract(content),
					Index:            index,
					Score:            score,
					Source:           source,
				},
				raw: model.RawResult{
					Index:   index,
					Content: truncateContent(content),
					Score:   score,
					Source:  source,
				},
			}
		}),

		linq.ForEach(func(v passageView) {
			envelope.StructuredResults = append(envelope.StructuredResults, v.structured)
			envelope.RawResults = append(envelope.RawResults, v.raw)
		}),
	)
	if err != nil {
		logger.Error("failed to shape retrieval results", zap.Error(err))
	}

	return envelope
}

func (a *RetrievalAdapter) retrieveTask(ctx context.Context, query string) <-chan async.Result[*bedrockagentruntime.RetrieveOutput] {
	return async.Go(func() (*bedrockagentruntime.RetrieveOutput, error) {
		augmented := strings.TrimSpace(query) + " " + searchContextHint

		logger.Info("querying knowledge base",
			zap.String("knowledgeBaseId", a.knowledgeBaseID),
			zap.String("query", query))

		return a.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
			KnowledgeBaseId: aws.String(a.knowledgeBaseID),
			RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(augmented)},
			RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
				VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
					NumberOfResults:    aws.Int32(numberOfResults),
					OverrideSearchType: types.SearchTypeHybrid,
				},
			},
		})
	})
}

// errorEnvelope maps a retrieval failure to an envelope with a localized
// message and the backend's machine-readable error code.
func errorEnvelope(err error) model.RetrievalEnvelope {
	envelope := model.RetrievalEnvelope{
		StructuredResults: []model.StructuredResult{},
		RawResults:        []model.RawResult{},
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		logger.Error("unexpected knowledge base failure", zap.Error(err))
		envelope.Error = model.ErrSystem
		envelope.Message = "システムエラーが発生しました: " + err.Error()
		return envelope
	}

	code := apiErr.ErrorCode()
	message := apiErr.ErrorMessage()
	logger.Error("knowledge base query failed",
		zap.String("errorCode", code),
		zap.String("errorMessage", message))

	envelope.Error = code
	switch code {
	case "ValidationException":
		if strings.Contains(message, "not able to call specified bedrock embedding model") {
			envelope.Message = msgEmbeddingAccess
		} else {
			envelope.Message = "ナレッジベースの設定に問題があります: " + message
		}
	case "ResourceNotFoundException":
		envelope.Message = msgNotFound
	case "AccessDeniedException":
		envelope.Message = msgAccessDenied
	default:
		envelope.Message = "ナレッジベースクエリエラー: " + message
	}
	return envelope
}

func sourceURI(loc *types.RetrievalResultLocation) string {
	if loc == nil || loc.S3Location == nil || loc.S3Location.Uri == nil {
		return "Unknown"
	}
	return *loc.S3Location.Uri
}

// truncateContent cuts the raw preview at a fixed rune count. Passage text
// is Japanese; a byte cut could split a code point.
func truncateContent(s string) string {
	r := []rune(s)
	if len(r) <= rawPreviewRunes {
		return s
	}
	return string(r[:rawPreviewRunes]) + "..."
}
