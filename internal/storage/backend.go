package storage

// Backend is the persistence collaborator as seen by the sync layer: either a
// usable Configured provider or an Unconfigured placeholder naming what is
// missing. Callers switch on the concrete type.
type Backend interface {
	backend()
}

// Configured wraps a ready Provider
type Configured struct {
	Provider Provider
	Endpoint string
	// APIKey signs session tokens for this backend
	APIKey string
}

// Unconfigured records which required settings are absent
type Unconfigured struct {
	Missing []string
}

func (Configured) backend()   {}
func (Unconfigured) backend() {}

// Required setting names reported by Unconfigured
const (
	SettingEndpoint = "endpoint"
	SettingAPIKey   = "api key"
)

// MissingSettings lists the required settings absent from endpoint and apiKey
func MissingSettings(endpoint, apiKey string) []string {
	var missing []string
	if endpoint == "" {
		missing = append(missing, SettingEndpoint)
	}
	if apiKey == "" {
		missing = append(missing, SettingAPIKey)
	}
	return missing
}
