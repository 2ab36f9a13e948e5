package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAgentMetadata_EchoesConfiguration(t *testing.T) {
	mc := ProvideMetadataController(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metadata/agent", nil)
	rec := httptest.NewRecorder()
	mc.AgentMetadata(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["knowledge_base_id"] != "KB123" || body["region"] != "us-east-1" || body["model_id"] != "test-model" {
		t.Errorf("unexpected metadata: %v", body)
	}
	if formats, ok := body["formats"].([]any); !ok || len(formats) != 2 {
		t.Errorf("formats missing or wrong: %v", body["formats"])
	}
}
