package backend

import (
	"fmt"
	"time"

	"billfold/internal/config"
)

// BackendType selects the layout extraction backend.
type BackendType string

const (
	DoclingBackend BackendType = "docling"
	VisionBackend  BackendType = "vision"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case DoclingBackend, VisionBackend:
		return true
	default:
		return false
	}
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{DoclingBackend, VisionBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Docling specific
	DoclingURL     string
	DoclingTimeout time.Duration
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.ExtractorBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.ExtractorBackend)
	}

	return Config{
		Type:           backendType,
		DoclingURL:     appConfig.DoclingURL,
		DoclingTimeout: appConfig.DoclingTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case DoclingBackend:
		if c.DoclingURL == "" {
			return fmt.Errorf("docling URL is required for docling backend")
		}
	case VisionBackend:
		// Credentials come from the ambient Google application default
		// credentials, nothing to validate here
	}

	return nil
}
