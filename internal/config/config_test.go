package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"DOCKER_REGISTRY_USERNAME", "DOCKER_REGISTRY_PASSWORD", "DOCKER_REGISTRY_URL",
		"CHALL_FOLDER", "DEPLOY_SERVER_AUTH_TOKEN", "WEBHOOK_SERVER_AUTH_TOKEN",
		"WEBHOOK_SERVER_ADDRESS", "DEPLOY_SERVER_ADDRESS", "S3_BUCKET_URL",
		"S3_DISPLAY_URL", "S3_ACCESS_KEY", "S3_SECRET_KEY", "GIT_BRANCH",
		"GIT_EMAIL", "GIT_SSH_KEY_PATH", "CATEGORIES", "COMPNAME", "POINT_MULT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		if err := os.Unsetenv(v); err != nil {
			t.Fatalf("unsetenv %s: %v", v, err)
		}
	}
}

func setAllRequired(t *testing.T) {
	t.Helper()
	required := map[string]string{
		"DOCKER_REGISTRY_USERNAME": "user",
		"DOCKER_REGISTRY_PASSWORD": "pass",
		"DOCKER_REGISTRY_URL":      "registry.example.com",
		"CHALL_FOLDER":             "/challs",
		"DEPLOY_SERVER_AUTH_TOKEN": "deploytoken",
		"WEBHOOK_SERVER_AUTH_TOKEN": "webhooktoken",
		"WEBHOOK_SERVER_ADDRESS":   "https://hub.example.com",
		"DEPLOY_SERVER_ADDRESS":    "https://deploy.example.com",
		"S3_BUCKET_URL":            "https://s3.example.com",
		"S3_DISPLAY_URL":           "https://static.example.com",
		"S3_ACCESS_KEY":            "ak",
		"S3_SECRET_KEY":            "sk",
		"GIT_EMAIL":                "bot@example.com",
		"GIT_SSH_KEY_PATH":         "/keys/id_ed25519",
	}
	for k, v := range required {
		t.Setenv(k, v)
	}
}

func TestLoad_AllRequiredPresent(t *testing.T) {
	clearEnv(t)
	setAllRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.GitBranch != "main" {
		t.Errorf("GitBranch default = %q, want main", cfg.GitBranch)
	}
	if cfg.DockerRegistryURL != "registry.example.com" {
		t.Errorf("DockerRegistryURL = %q", cfg.DockerRegistryURL)
	}
}

func TestLoad_MissingVariablesAggregated(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing env, got nil")
	}
	for _, want := range []string{"DOCKER_REGISTRY_USERNAME", "CHALL_FOLDER", "S3_ACCESS_KEY"} {
		if !contains(err.Error(), want) {
			t.Errorf("error message missing %q: %v", want, err)
		}
	}
}

func TestLoad_CategoriesParsed(t *testing.T) {
	clearEnv(t)
	setAllRequired(t)
	t.Setenv("CATEGORIES", "web, crypto ,pwn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	want := []string{"web", "crypto", "pwn"}
	if len(cfg.Categories) != len(want) {
		t.Fatalf("Categories = %v, want %v", cfg.Categories, want)
	}
	for i := range want {
		if cfg.Categories[i] != want[i] {
			t.Errorf("Categories[%d] = %q, want %q", i, cfg.Categories[i], want[i])
		}
	}
}

func TestLoad_PointMultInvalid(t *testing.T) {
	clearEnv(t)
	setAllRequired(t)
	t.Setenv("POINT_MULT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid POINT_MULT, got nil")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
