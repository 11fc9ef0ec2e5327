package backend

import (
	"testing"
	"time"

	"billfold/internal/config"
)

func TestBackendTypeIsValid(t *testing.T) {
	tests := []struct {
		bt    BackendType
		valid bool
	}{
		{DoclingBackend, true},
		{VisionBackend, true},
		{BackendType("sheets"), false},
		{BackendType(""), false},
	}
	for _, tt := range tests {
		if got := tt.bt.IsValid(); got != tt.valid {
			t.Errorf("%q.IsValid() = %v, want %v", tt.bt, got, tt.valid)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		ExtractorBackend: "docling",
		DoclingURL:       "http://localhost:5001",
		DoclingTimeout:   time.Minute,
	}

	cfg, err := FromAppConfig(appCfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != DoclingBackend {
		t.Errorf("type = %q, want docling", cfg.Type)
	}
	if cfg.DoclingURL != "http://localhost:5001" || cfg.DoclingTimeout != time.Minute {
		t.Errorf("docling settings not carried over: %+v", cfg)
	}
}

func TestFromAppConfigInvalid(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil app config accepted")
	}
	if _, err := FromAppConfig(&config.Config{ExtractorBackend: "tesseract"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"docling with url", Config{Type: DoclingBackend, DoclingURL: "http://localhost:5001"}, false},
		{"docling without url", Config{Type: DoclingBackend}, true},
		{"vision", Config{Type: VisionBackend}, false},
		{"unknown", Config{Type: BackendType("nope")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
