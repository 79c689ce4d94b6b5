package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"locline/internal/domain"
)

// DefaultSystemPrompt instructs the model to keep the ID:::Text protocol
// intact; runs break quietly without it.
const DefaultSystemPrompt = "# ROLE: Game localization translator.\n" +
	"## TECHNICAL PROTOCOL (STRICT):\n" +
	"- FORMAT: Always '{ID}:::{TranslatedText}'. One ID per line. NO blank lines between IDs.\n" +
	"- INTEGRITY: Preserve {tags}. No new braces.\n" +
	"- LITERALS: Keep '\\n' as literal.\n" +
	"- NO CHAT: Output ONLY translated content.\n\n" +
	"Translate EVERY line. Format: ID:::Text"

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Config is the complete structure of the locline.yaml file.
type Config struct {
	Run    domain.RunConfig `yaml:"run"`
	Server ServerConfig     `yaml:"server"`
	// DBPath enables the settings/cache/run-history store; empty disables it.
	DBPath string `yaml:"db_path"`
	// RequestTimeout in seconds for API calls; 0 keeps requests open until
	// the server gives up, matching the polled-stop model.
	RequestTimeout float64 `yaml:"request_timeout"`
}

func Default() *Config {
	return &Config{
		Run: domain.RunConfig{
			BaseURL:      "https://api.mistral.ai/v1",
			Model:        "mistral-large-latest",
			SystemPrompt: DefaultSystemPrompt,
			Temperature:  0.2,
			MaxTokens:    4096,
			TopP:         1.0,
			TopK:         -1,
			Stream:       true,
			Workers:      1,
			BatchSize:    50,
			Delay:        1.3,
		},
		Server: ServerConfig{
			Addr:        ":8091",
			CORSOrigins: []string{"*"},
		},
		DBPath: "data/locline.db",
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
