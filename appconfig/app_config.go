package appconfig

import (
	"os"

	"github.com/SaiNageswarS/go-api-boot/config"
)

// Fallback values used when the environment leaves a setting unset.
const (
	DefaultKnowledgeBaseID = "O8YQYDMUQB"
	DefaultRegion          = "us-east-1"
	DefaultModelID         = "anthropic.claude-3-sonnet-20240229-v1:0"
)

// AppConfig is the immutable process configuration, read once at startup.
type AppConfig struct {
	config.BootConfig `ini:",extends"`

	KnowledgeBaseID string `ini:"knowledge_base_id"`
	Region          string `ini:"region"`
	ModelID         string `ini:"model_id"`
}

// ProvideAppConfig builds the AppConfig from the environment.
func ProvideAppConfig() *AppConfig {
	return &AppConfig{
		KnowledgeBaseID: getEnv("STRANDS_KNOWLEDGE_BASE_ID", DefaultKnowledgeBaseID),
		Region:          getEnv("AWS_DEFAULT_REGION", DefaultRegion),
		ModelID:         getEnv("BEDROCK_MODEL_ID", DefaultModelID),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
