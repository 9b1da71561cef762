package model

import "time"

// Config holds the complete infobox2wd configuration
type Config struct {
	Language     string            `yaml:"language" mapstructure:"language"` // Default article language
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Wikidata     WikidataConfig    `yaml:"wikidata" mapstructure:"wikidata"`
	Extraction   ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Validation   ValidationConfig  `yaml:"validation" mapstructure:"validation"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Authority    AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
}

// HTTPConfig configures article fetching and API access
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the lookup response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers           int `yaml:"workers" mapstructure:"workers"`
	ValidationWorkers int `yaml:"validation_workers" mapstructure:"validation_workers"`
}

// RateLimitConfig configures per-host request rates
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// WikidataConfig configures the lookup collaborator
type WikidataConfig struct {
	APIURL          string   `yaml:"api_url" mapstructure:"api_url"`
	WikipediaAPIURL string   `yaml:"wikipedia_api_url" mapstructure:"wikipedia_api_url"` // %s takes the language code
	BatchSize       int      `yaml:"batch_size" mapstructure:"batch_size"`
	Languages       []string `yaml:"languages" mapstructure:"languages"` // Label language preference
}

// ExtractionConfig configures the core parsers
type ExtractionConfig struct {
	MetadataFile string `yaml:"metadata_file,omitempty" mapstructure:"metadata_file"` // Extra property/unit metadata
	PatternsDir  string `yaml:"patterns_dir,omitempty" mapstructure:"patterns_dir"`   // Extra locale pattern files
	Circa        bool   `yaml:"circa" mapstructure:"circa"`                           // Attach "circa" qualifiers
	Compare      bool   `yaml:"compare" mapstructure:"compare"`                       // Compare with existing claims
	Stability    bool   `yaml:"stability" mapstructure:"stability"`                   // Check the article edit history
}

// ValidationConfig configures reference URL checking
type ValidationConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OutputConfig configures report rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Pretty  bool `yaml:"pretty" mapstructure:"pretty"`
}

// LLMConfig configures the optional review summary
type LLMConfig struct {
	Provider  string `yaml:"provider,omitempty" mapstructure:"provider"`
	Model     string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	StrictEvidence bool `yaml:"strict_evidence" mapstructure:"strict_evidence"`
}

// AuthorityConfig classifies reference hosts into tiers
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // Exact host -> tier
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern assigns a tier to reference URLs whose path matches Pattern
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// DefaultUserAgent identifies the tool to Wikimedia APIs, which require one
const DefaultUserAgent = "infobox2wd/0.1 (+https://github.com/ppiankov/infobox2wd)"

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Language: "en",
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     DefaultUserAgent,
			MaxBodyBytes:  5_000_000,
			MaxRetries:    3,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".infobox2wd-cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:           4,
			ValidationWorkers: 10,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Wikidata: WikidataConfig{
			APIURL:          "https://www.wikidata.org/w/api.php",
			WikipediaAPIURL: "https://%s.wikipedia.org/w/api.php",
			BatchSize:       50,
			Languages:       []string{"en"},
		},
		Extraction: ExtractionConfig{
			Circa:     true,
			Compare:   true,
			Stability: true,
		},
		Validation: ValidationConfig{
			Enabled: false,
			Timeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Pretty: true,
		},
		LLM: LLMConfig{
			Timeout:        30,
			MaxTokens:      800,
			StrictEvidence: true,
		},
		Authority: AuthorityConfig{
			PrimaryDomains:   []string{"doi.org", "who.int", "un.org", "europa.eu", "census.gov"},
			SecondaryDomains: []string{"britannica.com", "nature.com", "reuters.com", "bbc.co.uk", "nytimes.com"},
		},
	}
}
