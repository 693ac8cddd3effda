package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Inference.Strategy != "weighted" {
		t.Errorf("Expected weighted strategy, got %s", cfg.Inference.Strategy)
	}
	if cfg.Inference.TopN != 3 {
		t.Errorf("Expected top 3, got %d", cfg.Inference.TopN)
	}
	if cfg.Inference.DomainPoints != 1000 {
		t.Errorf("Expected 1000 domain points, got %d", cfg.Inference.DomainPoints)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INFERENCE_STRATEGY", "mamdani")
	t.Setenv("INFERENCE_TOP_N", "5")
	t.Setenv("INFERENCE_DOMAIN_MAX", "100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Inference.Strategy != "mamdani" || cfg.Inference.TopN != 5 || cfg.Inference.DomainMax != 100 {
		t.Errorf("Expected env overrides, got %+v", cfg.Inference)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Expected two trimmed origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected json logs in production, got %s", cfg.Log.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown source", map[string]string{"KNOWLEDGE_SOURCE": "excel"}},
		{"unknown strategy", map[string]string{"INFERENCE_STRATEGY": "sugeno"}},
		{"zero top", map[string]string{"INFERENCE_TOP_N": "0"}},
		{"reversed domain", map[string]string{"INFERENCE_DOMAIN_MIN": "10", "INFERENCE_DOMAIN_MAX": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
