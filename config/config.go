package config

import "os"

// The model artifact sits at a fixed relative path and is loaded once at
// process start.
const (
	DefaultModelPath    = "model/readmission_model.json"
	DefaultMappingsPath = "mappings.yaml"
	DefaultPort         = "8084"
)

func ModelPath() string {
	return getenv("MODEL_PATH", DefaultModelPath)
}

func MappingsPath() string {
	return getenv("MAPPINGS_PATH", DefaultMappingsPath)
}

func Port() string {
	return getenv("PORT", DefaultPort)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
