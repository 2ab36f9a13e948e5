package controller

import (
	"encoding/json"
	"net/http"

	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/incidentkb/rag-agent/appconfig"
	"github.com/incidentkb/rag-agent/model"
)

type MetadataController struct {
	cfg *appconfig.AppConfig
}

func ProvideMetadataController(cfg *appconfig.AppConfig) *MetadataController {
	return &MetadataController{
		cfg: cfg,
	}
}

// AgentMetadata echoes the configured backends and the formats a caller can
// request.
func (mc *MetadataController) AgentMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	response := map[string]any{
		"knowledge_base_id": mc.cfg.KnowledgeBaseID,
		"region":            mc.cfg.Region,
		"model_id":          mc.cfg.ModelID,
		"formats":           []string{model.FormatSimple, model.FormatEnhanced},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (mc *MetadataController) Routes() []server.Route {
	return []server.Route{
		{
			Pattern: "/metadata/agent",
			Method:  http.MethodGet,
			Handler: mc.AgentMetadata,
		},
	}
}
