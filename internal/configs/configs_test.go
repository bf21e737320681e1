package configs

import "testing"

// setRequiredS3 fills the storage settings that have no defaults.
func setRequiredS3(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", "avatars")
	t.Setenv("S3_ENDPOINT", "https://s3.example.com")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
}

func TestLoadConfig_DevelopmentDefaults(t *testing.T) {
	setRequiredS3(t)
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("S3_PUBLIC_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		t.Error("JWTSecret empty, want development default")
	}
	if cfg.DatabaseDSN == "" {
		t.Error("DatabaseDSN empty, want development default")
	}
	if want := "https://s3.example.com/avatars"; cfg.S3PublicBaseURL != want {
		t.Errorf("S3PublicBaseURL = %q, want %q", cfg.S3PublicBaseURL, want)
	}
}

func TestLoadConfig_ProductionRequiresSecrets(t *testing.T) {
	setRequiredS3(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted production environment without JWT_SECRET")
	}
}

func TestLoadConfig_ProductionRequiresDatabase(t *testing.T) {
	setRequiredS3(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted production environment without DATABASE_URL")
	}
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	setRequiredS3(t)

	tests := []struct {
		name string
		port string
	}{
		{"not a number", "abc"},
		{"privileged", "80"},
		{"out of range", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("LoadConfig() accepted PORT=%q", tt.port)
			}
		})
	}
}

func TestLoadConfig_AllowedOrigins(t *testing.T) {
	setRequiredS3(t)
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v, want 2 entries", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[0] != "https://a.example.com" || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("AllowedOrigins = %v, entries not trimmed", cfg.AllowedOrigins)
	}
}

func TestLoadConfig_MissingS3(t *testing.T) {
	t.Setenv("S3_BUCKET_NAME", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted missing S3_BUCKET_NAME")
	}
}
