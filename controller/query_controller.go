package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/incidentkb/rag-agent/appconfig"
	"github.com/incidentkb/rag-agent/kb"
	"github.com/incidentkb/rag-agent/model"
	"go.uber.org/zap"
)

const (
	msgEmptyPrompt = "質問を入力してください。"
	msgSystemError = "システム処理中にエラーが発生しました。しばらく時間をおいてから再度お試しください。"
)

// QueryController handles incident queries: validate, retrieve from the
// knowledge base, then answer either with structured data only ("simple")
// or with a model-composed answer ("enhanced").
type QueryController struct {
	cfg        *appconfig.AppConfig
	newClients func(ctx context.Context) (*kb.Clients, error)
}

// ProvideQueryController creates a new QueryController instance. Backend
// clients are constructed per request, after validation, so rejected
// payloads never touch AWS.
func ProvideQueryController(cfg *appconfig.AppConfig) *QueryController {
	return &QueryController{
		cfg: cfg,
		newClients: func(ctx context.Context) (*kb.Clients, error) {
			return kb.NewClients(ctx, cfg.Region)
		},
	}
}

// HandleQuery handles POST /query.
func (c *QueryController) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req model.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	response := c.processQuery(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
		// Note: Can't call http.Error here as headers may already be written
		return
	}

	logger.Info("Query processed",
		zap.String("status", response.Status),
		zap.Intp("count", response.Count))
}

// processQuery runs the request chain. The deferred recover is the single
// outermost safety net: whatever breaks, the caller still gets the stable
// envelope shape with status "system_error".
func (c *QueryController) processQuery(ctx context.Context, req model.QueryRequest) (response model.QueryResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Unhandled failure while processing query", zap.Any("panic", r))
			response = model.QueryResponse{
				Result:          msgSystemError,
				Status:          model.StatusSystemError,
				KnowledgeBaseID: c.cfg.KnowledgeBaseID,
				Error:           fmt.Sprintf("アプリケーションエラー: %v", r),
			}
		}
	}()

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return model.QueryResponse{
			Result:          msgEmptyPrompt,
			Status:          model.StatusError,
			KnowledgeBaseID: c.cfg.KnowledgeBaseID,
		}
	}

	clients, err := c.newClients(ctx)
	if err != nil {
		logger.Error("Failed to construct backend clients", zap.Error(err))
		return model.QueryResponse{
			Result:          msgSystemError,
			Status:          model.StatusSystemError,
			KnowledgeBaseID: c.cfg.KnowledgeBaseID,
			Error:           err.Error(),
		}
	}

	envelope := kb.NewRetrievalAdapter(clients.AgentRuntime, c.cfg.KnowledgeBaseID).
		Retrieve(ctx, prompt)
	if envelope.Error != "" {
		// short-circuit: the generation backend is never called
		return model.QueryResponse{
			Result:          envelope.Message,
			Status:          model.StatusError,
			KnowledgeBaseID: c.cfg.KnowledgeBaseID,
			Error:           envelope.Error,
		}
	}

	if req.Format == model.FormatSimple {
		return model.QueryResponse{
			Result:          envelope.Message,
			Status:          model.StatusSuccess,
			KnowledgeBaseID: c.cfg.KnowledgeBaseID,
			StructuredData:  envelope.StructuredResults,
			Count:           model.CountOf(len(envelope.StructuredResults)),
		}
	}

	answer := kb.NewAnswerComposer(clients.Runtime, c.cfg.ModelID).
		Compose(ctx, prompt, envelope)
	return model.QueryResponse{
		Result:          answer,
		Status:          model.StatusSuccess,
		KnowledgeBaseID: c.cfg.KnowledgeBaseID,
		StructuredData:  envelope.StructuredResults,
		RawResults:      envelope.RawResults,
		Count:           model.CountOf(len(envelope.StructuredResults)),
	}
}

func (c *QueryController) Routes() []server.Route {
	return []server.Route{
		{
			Pattern: "/query",
			Method:  http.MethodPost,
			Handler: c.HandleQuery,
		},
	}
}
