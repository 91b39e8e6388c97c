package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "TRAXIV_CONFIG"
	hypothesisUserEnv   = "HYPOTHESIS_USER"
	hypothesisAPIKeyEnv = "HYPOTHESIS_API_KEY"
	hypothesisGroupEnv  = "TRAXIV_GROUP"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Feed       FeedConfig       `yaml:"feed"`
	Hypothesis HypothesisConfig `yaml:"hypothesis"`
	Campaign   CampaignConfig   `yaml:"campaign"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FeedConfig describes the bioRxiv publisher API endpoint and the request
// budget for talking to it.
type FeedConfig struct {
	BaseURL           string  `yaml:"baseUrl"`
	TimeoutSeconds    int     `yaml:"timeoutSeconds"`
	Retries           int     `yaml:"retries"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// Timeout resolves the configured request timeout.
func (f FeedConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// HypothesisConfig wires credentials and endpoint for the annotation store.
type HypothesisConfig struct {
	APIURL            string  `yaml:"apiUrl"`
	User              string  `yaml:"user"`
	APIKey            string  `yaml:"apiKey"`
	TimeoutSeconds    int     `yaml:"timeoutSeconds"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	PurgeLimit        int     `yaml:"purgeLimit"`
}

// Timeout resolves the configured request timeout.
func (h HypothesisConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// CampaignConfig defines how annotations produced by this system look:
// the body template, the tag that marks them as ours, and per-journal
// banner images.
type CampaignConfig struct {
	Tag          string            `yaml:"tag"`
	PublisherTag string            `yaml:"publisherTag"`
	TemplatePath string            `yaml:"templatePath"`
	Template     string            `yaml:"template"`
	Banners      map[string]string `yaml:"banners"`
	ScopeURI     string            `yaml:"scopeUri"`
}

// DefaultsConfig provides fallbacks for the CLI flags.
type DefaultsConfig struct {
	Prefixes []string `yaml:"prefixes"`
	Journals []string `yaml:"journals"`
	Group    string   `yaml:"group"`
}

// BodyTemplate returns the campaign template, loading it from
// TemplatePath when one is configured.
func (c CampaignConfig) BodyTemplate() (string, error) {
	if c.TemplatePath != "" {
		raw, err := os.ReadFile(c.TemplatePath)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return c.Template, nil
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(hypothesisUserEnv); v != "" {
		c.Hypothesis.User = v
	}

	if v := os.Getenv(hypothesisAPIKeyEnv); v != "" {
		c.Hypothesis.APIKey = v
	}

	if v := os.Getenv(hypothesisGroupEnv); v != "" {
		c.Defaults.Group = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Feed.BaseURL != "" {
		base.Feed.BaseURL = override.Feed.BaseURL
	}
	if override.Feed.TimeoutSeconds > 0 {
		base.Feed.TimeoutSeconds = override.Feed.TimeoutSeconds
	}
	if override.Feed.Retries > 0 {
		base.Feed.Retries = override.Feed.Retries
	}
	if override.Feed.RequestsPerSecond > 0 {
		base.Feed.RequestsPerSecond = override.Feed.RequestsPerSecond
	}

	if override.Hypothesis.APIURL != "" {
		base.Hypothesis.APIURL = override.Hypothesis.APIURL
	}
	if override.Hypothesis.User != "" {
		base.Hypothesis.User = override.Hypothesis.User
	}
	if override.Hypothesis.APIKey != "" {
		base.Hypothesis.APIKey = override.Hypothesis.APIKey
	}
	if override.Hypothesis.TimeoutSeconds > 0 {
		base.Hypothesis.TimeoutSeconds = override.Hypothesis.TimeoutSeconds
	}
	if override.Hypothesis.RequestsPerSecond > 0 {
		base.Hypothesis.RequestsPerSecond = override.Hypothesis.RequestsPerSecond
	}
	if override.Hypothesis.PurgeLimit > 0 {
		base.Hypothesis.PurgeLimit = override.Hypothesis.PurgeLimit
	}

	if override.Campaign.Tag != "" {
		base.Campaign.Tag = override.Campaign.Tag
	}
	if override.Campaign.PublisherTag != "" {
		base.Campaign.PublisherTag = override.Campaign.PublisherTag
	}
	if override.Campaign.TemplatePath != "" {
		base.Campaign.TemplatePath = override.Campaign.TemplatePath
	}
	if override.Campaign.Template != "" {
		base.Campaign.Template = override.Campaign.Template
	}
	if len(override.Campaign.Banners) > 0 {
		base.Campaign.Banners = override.Campaign.Banners
	}
	if override.Campaign.ScopeURI != "" {
		base.Campaign.ScopeURI = override.Campaign.ScopeURI
	}

	if len(override.Defaults.Prefixes) > 0 {
		base.Defaults.Prefixes = override.Defaults.Prefixes
	}
	if len(override.Defaults.Journals) > 0 {
		base.Defaults.Journals = override.Defaults.Journals
	}
	if override.Defaults.Group != "" {
		base.Defaults.Group = override.Defaults.Group
	}

	return base
}

const defaultTemplate = `![]($banner)

This preprint has been peer reviewed and published in **$journal**.

The [Review Process File]($rpf_link) documents how the study evolved
through peer review of the published paper https://doi.org/$paper_doi.
`

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Feed: FeedConfig{
			BaseURL:           "https://api.biorxiv.org",
			TimeoutSeconds:    20,
			Retries:           3,
			RequestsPerSecond: 5,
		},
		Hypothesis: HypothesisConfig{
			APIURL:            "https://api.hypothes.is/api",
			TimeoutSeconds:    15,
			RequestsPerSecond: 5,
			PurgeLimit:        200,
		},
		Campaign: CampaignConfig{
			Tag:          "PeerReviewed",
			PublisherTag: "EMBOPress",
			Template:     defaultTemplate,
			ScopeURI:     "https://www.biorxiv.org",
			Banners: map[string]string{
				"Molecular Systems Biology": "https://www.embopress.org/pb-assets/embo-site/images/RevCo_Transparency-MSB.jpg",
				"The EMBO Journal":          "https://www.embopress.org/pb-assets/embo-site/images/RevCo_Transparency-EMBOJ.jpg",
				"EMBO reports":              "https://www.embopress.org/pb-assets/embo-site/images/RevCo_Transparency-EMBOR.jpg",
				"EMBO Molecular Medicine":   "https://www.embopress.org/pb-assets/embo-site/images/RevCo_Transparency-EMM.jpg",
				"Life Science Alliance":     "https://www.embopress.org/pb-assets/embo-site/images/RevCo_Transparency-LSA.jpg",
			},
		},
		Defaults: DefaultsConfig{
			Prefixes: []string{"10.15252", "10.26508"},
			Journals: []string{
				"The EMBO Journal",
				"EMBO reports",
				"EMBO Molecular Medicine",
				"Molecular Systems Biology",
				"Life Science Alliance",
			},
		},
	}
}
