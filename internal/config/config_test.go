package config

import "testing"

func setRequired(t *testing.T) {
	t.Setenv("OBSERVATORY_BASE_URL", "https://observatory.example.com")
	t.Setenv("TOLLBOARD_SESSION_SECRET", "test-secret")
}

func TestLoad_DefaultsApply(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPAddress() != ":8080" {
		t.Errorf("address = %q", cfg.HTTPAddress())
	}
	if cfg.Admin.OperatorID != "admin" {
		t.Errorf("admin operator id = %q", cfg.Admin.OperatorID)
	}
	if cfg.HTTPTimeout().Seconds() != 15 {
		t.Errorf("timeout = %v", cfg.HTTPTimeout())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TOLLBOARD_HTTP_PORT", "9090")
	t.Setenv("OBSERVATORY_HTTP_TIMEOUT", "3")
	t.Setenv("TOLLBOARD_ADMIN_OPERATOR_ID", "root")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPAddress() != ":9090" {
		t.Errorf("address = %q", cfg.HTTPAddress())
	}
	if cfg.HTTPTimeout().Seconds() != 3 {
		t.Errorf("timeout = %v", cfg.HTTPTimeout())
	}
	if cfg.Admin.OperatorID != "root" {
		t.Errorf("admin operator id = %q", cfg.Admin.OperatorID)
	}
}

func TestLoad_RequiresBaseURLAndSecret(t *testing.T) {
	t.Setenv("OBSERVATORY_BASE_URL", "")
	t.Setenv("TOLLBOARD_SESSION_SECRET", "test-secret")
	if _, err := Load(); err == nil {
		t.Error("Load accepted empty base url")
	}

	t.Setenv("OBSERVATORY_BASE_URL", "https://observatory.example.com")
	t.Setenv("TOLLBOARD_SESSION_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("Load accepted empty session secret")
	}
}
