package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at startup. Values come from an
// optional YAML file and can be overridden by environment variables, so the
// same binary works locally and in a container without editing files.
type Config struct {
	Port           string   `yaml:"port"`
	Environment    string   `yaml:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	DatabaseURL string `yaml:"database_url"`

	OpenAI struct {
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openai"`

	RAG struct {
		BaseURL    string        `yaml:"base_url"`
		MaxResults int           `yaml:"max_results"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"rag"`

	Session struct {
		Backend      string `yaml:"backend"` // "memory", "redis" or "postgres"
		RedisAddr    string `yaml:"redis_addr"`
		MaxTurns     int    `yaml:"max_turns"`
		SummaryTurns int    `yaml:"summary_turns"`
	} `yaml:"session"`
}

const (
	defaultPort         = "8080"
	defaultModel        = "gpt-4o-mini"
	defaultMaxTurns     = 20
	defaultSummaryTurns = 5
	defaultMaxResults   = 5
	defaultTimeout      = 30 * time.Second
)

// Load reads the YAML file at path (if it exists), applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config file %s", path)
			}
		case os.IsNotExist(err):
			// Env-only configuration is fine.
		default:
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitOrigins(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("RAG_BASE_URL"); v != "" {
		c.RAG.BaseURL = v
	}
	if v := os.Getenv("RAG_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RAG.MaxResults = n
		}
	}
	if v := os.Getenv("SESSION_BACKEND"); v != "" {
		c.Session.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Session.RedisAddr = v
	}
	if v := os.Getenv("SESSION_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Session.MaxTurns = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultModel
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = defaultTimeout
	}
	if c.RAG.MaxResults == 0 {
		c.RAG.MaxResults = defaultMaxResults
	}
	if c.RAG.Timeout == 0 {
		c.RAG.Timeout = 10 * time.Second
	}
	if c.Session.Backend == "" {
		c.Session.Backend = "memory"
	}
	if c.Session.MaxTurns == 0 {
		c.Session.MaxTurns = defaultMaxTurns
	}
	if c.Session.SummaryTurns == 0 {
		c.Session.SummaryTurns = defaultSummaryTurns
	}
}

// Validate rejects configurations that cannot possibly work, so the server
// fails at startup instead of on the first request.
func (c *Config) Validate() error {
	var problems []string
	if c.OpenAI.APIKey == "" {
		problems = append(problems, "openai api key is required (OPENAI_API_KEY)")
	}
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			problems = append(problems, "session backend is redis but redis_addr is empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "session backend is postgres but database_url is empty")
		}
	default:
		problems = append(problems, "unknown session backend: "+c.Session.Backend)
	}
	if c.Session.MaxTurns < c.Session.SummaryTurns {
		problems = append(problems, "session max_turns must be >= summary_turns")
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func splitOrigins(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
