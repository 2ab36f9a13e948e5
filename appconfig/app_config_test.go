package appconfig

import "testing"

func TestProvideAppConfig_Defaults(t *testing.T) {
	t.Setenv("STRANDS_KNOWLEDGE_BASE_ID", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("BEDROCK_MODEL_ID", "")

	cfg := ProvideAppConfig()

	if cfg.KnowledgeBaseID != DefaultKnowledgeBaseID {
		t.Errorf("KnowledgeBaseID = %q", cfg.KnowledgeBaseID)
	}
	if cfg.Region != DefaultRegion {
		t.Errorf("Region = %q", cfg.Region)
	}
	if cfg.ModelID != DefaultModelID {
		t.Errorf("ModelID = %q", cfg.ModelID)
	}
}

func TestProvideAppConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STRANDS_KNOWLEDGE_BASE_ID", "KB999")
	t.Setenv("AWS_DEFAULT_REGION", "ap-northeast-1")
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0")

	cfg := ProvideAppConfig()

	if cfg.KnowledgeBaseID != "KB999" {
		t.Errorf("KnowledgeBaseID = %q", cfg.KnowledgeBaseID)
	}
	if cfg.Region != "ap-northeast-1" {
		t.Errorf("Region = %q", cfg.Region)
	}
	if cfg.ModelID != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Errorf("ModelID = %q", cfg.ModelID)
	}
}
