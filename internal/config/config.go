package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the workspace configuration file.
const FileName = "finsight.yaml"

// Config represents the top-level finsight.yaml configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Users     []UserConfig    `yaml:"users"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Reporting ReportingConfig `yaml:"reporting"`
	Assistant AssistantConfig `yaml:"assistant"`
	Logging   LoggingConfig   `yaml:"logging"`
	Git       GitConfig       `yaml:"git"`
}

// WorkspaceConfig identifies the review workspace.
type WorkspaceConfig struct {
	Name string `yaml:"name"`
}

// WorkflowConfig holds the ordered reviewer stages.
type WorkflowConfig struct {
	Stages []string `yaml:"stages"`
}

// UserConfig maps a person to the reviewer role they act as.
type UserConfig struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// IngestionConfig tunes header detection and previews.
type IngestionConfig struct {
	HeaderScanRows   int                 `yaml:"header_scan_rows"`
	MinMatchRatio    float64             `yaml:"min_match_ratio"`
	PreferredSheet   string              `yaml:"preferred_sheet"`
	PreviewRows      int                 `yaml:"preview_rows"`
	ParseConcurrency int                 `yaml:"parse_concurrency"`
	ExtraAliases     map[string][]string `yaml:"extra_aliases,omitempty"`
}

// ReportingConfig sets department priority thresholds (mistake counts).
type ReportingConfig struct {
	CriticalMistakes int `yaml:"critical_mistakes"`
	MediumMistakes   int `yaml:"medium_mistakes"`
}

// AssistantConfig points the chat assistant at a chat-completions endpoint.
type AssistantConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a finsight.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(name string) *Config {
	return &Config{
		Workspace: WorkspaceConfig{Name: name},
		Workflow: WorkflowConfig{
			Stages: []string{"Checker 1", "Checker 2", "Final Checker"},
		},
		Users: []UserConfig{
			{Name: "Alice", Role: "Checker 1"},
			{Name: "Bob", Role: "Checker 2"},
			{Name: "Charlie", Role: "Final Checker"},
			{Name: "Diana", Role: "CFO"},
		},
		Ingestion: IngestionConfig{
			HeaderScanRows:   10,
			MinMatchRatio:    0.5,
			PreferredSheet:   "summary",
			PreviewRows:      5,
			ParseConcurrency: 4,
		},
		Reporting: ReportingConfig{
			CriticalMistakes: 10,
			MediumMistakes:   5,
		},
		Assistant: AssistantConfig{
			BaseURL:        "https://openrouter.ai/api/v1/chat/completions",
			Model:          "google/gemini-2.5-flash",
			APIKeyEnv:      "FINSIGHT_API_KEY",
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "FinSight",
			AuthorEmail: "finsight@localhost",
		},
	}
}

// Validate checks the settings the engines depend on.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Workflow.Stages) == 0 {
		errs = append(errs, errors.New("workflow.stages must not be empty"))
	}
	seen := make(map[string]bool)
	for _, u := range c.Users {
		name := strings.TrimSpace(u.Name)
		if name == "" || strings.TrimSpace(u.Role) == "" {
			errs = append(errs, fmt.Errorf("user %q: name and role are required", u.Name))
			continue
		}
		if seen[strings.ToLower(name)] {
			errs = append(errs, fmt.Errorf("user %q listed twice", u.Name))
		}
		seen[strings.ToLower(name)] = true
	}
	if c.Ingestion.HeaderScanRows <= 0 {
		errs = append(errs, errors.New("ingestion.header_scan_rows must be positive"))
	}
	if c.Ingestion.MinMatchRatio <= 0 || c.Ingestion.MinMatchRatio >= 1 {
		errs = append(errs, errors.New("ingestion.min_match_ratio must be between 0 and 1"))
	}
	if c.Reporting.MediumMistakes > c.Reporting.CriticalMistakes {
		errs = append(errs, errors.New("reporting.medium_mistakes must not exceed critical_mistakes"))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// FindUser looks up a configured user by name, case-insensitively.
func (c *Config) FindUser(name string) (UserConfig, bool) {
	for _, u := range c.Users {
		if strings.EqualFold(strings.TrimSpace(u.Name), strings.TrimSpace(name)) {
			return u, true
		}
	}
	return UserConfig{}, false
}
