// Package config loads persistent settings from a JSON file with
// environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the planner's persistent configuration.
type Config struct {
	LLMProvider string `json:"llm_provider,omitempty"` // openai, anthropic, deepseek, groq, ollama
	Model       string `json:"model,omitempty"`        // default model name for the provider

	TavilyAPIKey string `json:"tavily_api_key,omitempty"` // web search, optional

	DataDir   string `json:"data_dir,omitempty"`   // checkpoints, places db, guide index
	GuidesDir string `json:"guides_dir,omitempty"` // destination guide documents to index

	ReviewCap     int `json:"review_cap,omitempty"`     // max reviewer-driven refinement passes
	ClarifyRounds int `json:"clarify_rounds,omitempty"` // max clarification prompts, 0 = unlimited
	HistoryBudget int `json:"history_budget,omitempty"` // token budget for model-call history

	CallTimeoutSeconds int `json:"call_timeout_seconds,omitempty"` // per-step deadline
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a configuration manager rooted at the user config dir.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "tripweaver")}, nil
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk and applies environment overrides.
// A missing file yields the defaults, not an error.
func (m *Manager) Load() (*Config, error) {
	cfg := defaults()

	path := m.GetConfigPath()
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config json: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// Save writes the configuration to disk with restricted permissions.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// API keys live in here, keep it owner-only.
	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}

// CallTimeout returns the per-step deadline as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// CheckpointPath returns the path of the session checkpoint database.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.DataDir, "checkpoints.db")
}

// PlacesPath returns the path of the places database.
func (c *Config) PlacesPath() string {
	return filepath.Join(c.DataDir, "places.db")
}

// GuideIndexPath returns the path of the guide search index.
func (c *Config) GuideIndexPath() string {
	return filepath.Join(c.DataDir, "guides.bleve")
}

func defaults() *Config {
	return &Config{
		LLMProvider:        "openai",
		DataDir:            defaultDataDir(),
		ReviewCap:          2,
		ClarifyRounds:      0,
		HistoryBudget:      12000,
		CallTimeoutSeconds: 120,
	}
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "tripweaver")
	}
	return ".tripweaver"
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = v
	}
	if v := os.Getenv("TRIPWEAVER_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		cfg.TavilyAPIKey = v
	}
	if v := os.Getenv("TRIPWEAVER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("TRIPWEAVER_GUIDES_DIR"); v != "" {
		cfg.GuidesDir = v
	}
	if v, err := strconv.Atoi(os.Getenv("TRIPWEAVER_REVIEW_CAP")); err == nil && v >= 0 {
		cfg.ReviewCap = v
	}
	if v, err := strconv.Atoi(os.Getenv("TRIPWEAVER_CLARIFY_ROUNDS")); err == nil && v >= 0 {
		cfg.ClarifyRounds = v
	}
	if v, err := strconv.Atoi(os.Getenv("TRIPWEAVER_HISTORY_BUDGET")); err == nil && v > 0 {
		cfg.HistoryBudget = v
	}
	if v, err := strconv.Atoi(os.Getenv("TRIPWEAVER_CALL_TIMEOUT")); err == nil && v > 0 {
		cfg.CallTimeoutSeconds = v
	}
}
