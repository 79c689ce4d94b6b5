package domain

// RunConfig holds everything a translation run needs. It is read-only for
// the duration of a run and freely shared between workers.
type RunConfig struct {
	BaseURL      string  `json:"base_url" yaml:"base_url"`
	APIKey       string  `json:"api_key" yaml:"api_key"`
	Model        string  `json:"model" yaml:"model"`
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt"`
	Temperature  float64 `json:"temperature" yaml:"temperature"`
	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens"`
	TopP         float64 `json:"top_p" yaml:"top_p"`
	TopK         int     `json:"top_k" yaml:"top_k"` // sent only when > 0
	Stream       bool    `json:"stream" yaml:"stream"`
	Workers      int     `json:"workers" yaml:"workers"`
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
	Delay        float64 `json:"delay" yaml:"delay"` // seconds between batches
	Output       string  `json:"output" yaml:"output"`
}
