package dto

// ConfigResponse is the public configuration payload: hardcoded defaults with
// stored overrides merged on top, plus the company block.
type ConfigResponse struct {
	Settings map[string]string `json:"settings"`
	Company  CompanyInfo       `json:"company"`
}

// CompanyInfo mirrors the configured company identity.
type CompanyInfo struct {
	Name string `json:"name"`
	CNPJ string `json:"cnpj,omitempty"`
}

// UpdateSettingsRequest carries admin configuration changes keyed by setting name.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}
