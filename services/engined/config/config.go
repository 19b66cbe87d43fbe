package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gabrielfst30/descentralized-stablecoin-engine/crypto"
)

// Config captures the runtime settings for the engine daemon.
type Config struct {
	ListenAddress string      `yaml:"listen"`
	Environment   string      `yaml:"env"`
	LogFile       string      `yaml:"log_file"`
	DataDir       string      `yaml:"data_dir"`
	EngineConfig  string      `yaml:"engine_config"`
	Custody       string      `yaml:"custody"`
	Auth          AuthConfig  `yaml:"auth"`
	Feeds         []FeedQuote `yaml:"feeds"`
}

// AuthConfig lists the bearer tokens accepted on mutating endpoints.
type AuthConfig struct {
	APITokens      []string `yaml:"api_tokens"`
	AllowAnonymous bool     `yaml:"allow_anonymous"`
}

// FeedQuote seeds one manual price feed entry at startup. Price is a decimal
// string in whole quote-currency units, e.g. "2000" or "2000.50".
type FeedQuote struct {
	Feed  string `yaml:"feed"`
	Price string `yaml:"price"`
}

// Load reads the YAML configuration from disk and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress: ":7450",
	}
	if path == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) normalize() {
	if cfg == nil {
		return
	}
	cfg.ListenAddress = strings.TrimSpace(cfg.ListenAddress)
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":7450"
	}
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.LogFile = strings.TrimSpace(cfg.LogFile)
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	cfg.EngineConfig = strings.TrimSpace(cfg.EngineConfig)
	cfg.Custody = strings.TrimSpace(cfg.Custody)
	cfg.Auth.normalize()

	feeds := make([]FeedQuote, 0, len(cfg.Feeds))
	for _, quote := range cfg.Feeds {
		quote.Feed = strings.TrimSpace(quote.Feed)
		quote.Price = strings.TrimSpace(quote.Price)
		if quote.Feed != "" {
			feeds = append(feeds, quote)
		}
	}
	cfg.Feeds = feeds
}

func (cfg *Config) validate() error {
	if cfg == nil {
		return fmt.Errorf("configuration is missing")
	}
	if cfg.EngineConfig == "" {
		return fmt.Errorf("engine_config path required")
	}
	if cfg.Custody == "" {
		return fmt.Errorf("custody address required")
	}
	if _, err := crypto.DecodeAddress(cfg.Custody); err != nil {
		return fmt.Errorf("custody: %w", err)
	}
	if err := cfg.Auth.validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	for _, quote := range cfg.Feeds {
		if quote.Price == "" {
			return fmt.Errorf("feed %s: price required", quote.Feed)
		}
	}
	return nil
}

func (cfg *AuthConfig) normalize() {
	if cfg == nil {
		return
	}
	tokens := make([]string, 0, len(cfg.APITokens))
	for _, token := range cfg.APITokens {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	cfg.APITokens = tokens
}

func (cfg AuthConfig) validate() error {
	if len(cfg.APITokens) == 0 && !cfg.AllowAnonymous {
		return fmt.Errorf("api_tokens required unless allow_anonymous=true")
	}
	return nil
}
