package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Prompts holds optional overrides for every prompt template. Empty values
// fall back to the built-in templates of the package that owns the prompt.
type Prompts struct {
	Extraction       string `toml:"extraction"`
	CommunitySummary string `toml:"community_summary"`
	Decompose        string `toml:"decompose"`
	Reflect          string `toml:"reflect"`
	CallbackDetect   string `toml:"callback_detect"`
	CacheCheck       string `toml:"cache_check"`
	Response         string `toml:"response"`
	TurnSummary      string `toml:"turn_summary"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	MaxRetries  int     `toml:"max_retries"`
	BackoffBase float64 `toml:"backoff_base"` // seconds
}

type GenerationConfig struct {
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	Role        string  `toml:"role"`
}

type DedupeConfig struct {
	Threshold float64 `toml:"threshold"`
}

type ExtractionConfig struct {
	MinStrength float64 `toml:"min_strength"`
}

type CommunityConfig struct {
	Algorithm     string  `toml:"algorithm"`
	MinSize       int     `toml:"min_size"`
	Resolution    float64 `toml:"resolution"`
	Seed          uint64  `toml:"seed"`
	MaxIterations int     `toml:"max_iterations"`
}

type AgentConfig struct {
	MaxIterations    int `toml:"max_iterations"`
	MaxEntities      int `toml:"max_entities"`
	MaxCommunities   int `toml:"max_communities"`
	ReflectionBudget int `toml:"reflection_budget"`
}

type MemoryConfig struct {
	HistoryLimit int `toml:"history_limit"`
	MaxCacheSize int `toml:"max_cache_size"`
	CacheBudget  int `toml:"cache_budget"`
}

type StorageConfig struct {
	Dir     string `toml:"dir"`
	Backend string `toml:"backend"` // file | badger
	Format  string `toml:"format"`  // json | msgpack
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Generation GenerationConfig `toml:"generation"`
	Extraction ExtractionConfig `toml:"extraction"`
	Dedupe     DedupeConfig     `toml:"dedupe"`
	Community  CommunityConfig  `toml:"community"`
	Agent      AgentConfig      `toml:"agent"`
	Memory     MemoryConfig     `toml:"memory"`
	Storage    StorageConfig    `toml:"storage"`
	Memgraph   MemgraphConfig   `toml:"memgraph"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
	Prompts    Prompts          `toml:"prompts"`
}

// Default returns a configuration with every tunable populated.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-1.5-flash",
			MaxRetries:  3,
			BackoffBase: 1,
		},
		Generation: GenerationConfig{Temperature: 0.7, MaxTokens: 1024},
		Extraction: ExtractionConfig{MinStrength: 0.3},
		Dedupe:     DedupeConfig{Threshold: 0.85},
		Community: CommunityConfig{
			Algorithm:     "louvain",
			MinSize:       2,
			Resolution:    1.0,
			Seed:          1,
			MaxIterations: 20,
		},
		Agent: AgentConfig{
			MaxIterations:    5,
			MaxEntities:      5,
			MaxCommunities:   2,
			ReflectionBudget: 2000,
		},
		Memory: MemoryConfig{
			HistoryLimit: 5,
			MaxCacheSize: 20,
			CacheBudget:  1000,
		},
		Storage: StorageConfig{Dir: "output", Backend: "file", Format: "json"},
		Server:  ServerConfig{Port: "8080"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when present.
func (c *Config) ApplyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("LLM_MODEL", &c.LLM.Model)
	setString("LLM_API_KEY", &c.LLM.APIKey)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)
	setString("MEMGRAPH_URI", &c.Memgraph.URI)
	setString("MEMGRAPH_USER", &c.Memgraph.User)
	setString("MEMGRAPH_PASSWORD", &c.Memgraph.Password)
	setString("DATA_DIR", &c.Storage.Dir)
	setString("PORT", &c.Server.Port)
	setString("LOG_LEVEL", &c.Log.Level)

	// Gemini keys are commonly exported as GEMINI_API_KEY.
	if c.LLM.APIKey == "" && strings.EqualFold(c.LLM.Provider, "gemini") {
		setString("GEMINI_API_KEY", &c.LLM.APIKey)
	}
	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.MaxRetries = n
		}
	}
}

// Validate reports every missing or out-of-range value at once.
func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "gemini", "claude":
		if c.LLM.APIKey == "" {
			problems = append(problems, fmt.Sprintf("llm.api_key is required for provider %q", c.LLM.Provider))
		}
	case "ollama":
	default:
		problems = append(problems, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		problems = append(problems, "llm.model is required")
	}
	if c.Dedupe.Threshold <= 0 || c.Dedupe.Threshold > 1 {
		problems = append(problems, "dedupe.threshold must be in (0, 1]")
	}
	switch c.Community.Algorithm {
	case "louvain", "label_propagation", "greedy_modularity":
	default:
		problems = append(problems, fmt.Sprintf("community.algorithm %q is not supported", c.Community.Algorithm))
	}
	if c.Community.MinSize < 1 {
		problems = append(problems, "community.min_size must be at least 1")
	}
	if c.Agent.MaxIterations < 0 {
		problems = append(problems, "agent.max_iterations must not be negative")
	}
	if c.Memory.HistoryLimit < 1 {
		problems = append(problems, "memory.history_limit must be at least 1")
	}
	if c.Memory.MaxCacheSize < 0 {
		problems = append(problems, "memory.max_cache_size must not be negative")
	}
	switch c.Storage.Backend {
	case "file", "badger":
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q is not supported", c.Storage.Backend))
	}
	switch c.Storage.Format {
	case "json", "msgpack":
	default:
		problems = append(problems, fmt.Sprintf("storage.format %q is not supported", c.Storage.Format))
	}
	if c.Storage.Dir == "" {
		problems = append(problems, "storage.dir is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ConfigPath resolves the config file location from CONFIG_PATH.
func ConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.toml"
}
