package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/fairness-check/pkg/schema"
	"github.com/ogulcanaydogan/fairness-check/pkg/types"
)

//go:embed config.schema.json
var configSchema []byte

var compiledSchema = sync.OnceValues(func() (*schema.Schema, error) {
	return schema.Compile(configSchema)
})

var ErrInvalid = errors.New("invalid configuration")

const (
	FeaturesRaw  = "raw"
	FeaturesJSON = "json"

	DefaultMethod         = "POST"
	DefaultTimeout        = 30 * time.Second
	DefaultConcurrency    = 1
	DefaultMaxFailureRate = 1.0
)

// DefaultResponseKeys are tried in order when extracting a prediction.
var DefaultResponseKeys = []string{"prediction", "inference", "label", "output", "class"}

type Config struct {
	Endpoint  EndpointConfig  `yaml:"endpoint"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Fairness  FairnessConfig  `yaml:"fairness"`
	Execution ExecutionConfig `yaml:"execution"`
}

type EndpointConfig struct {
	URL               string            `yaml:"url"`
	Method            string            `yaml:"method"`
	Headers           map[string]string `yaml:"headers"`
	TimeoutSeconds    float64           `yaml:"timeout"`
	AuthToken         string            `yaml:"auth_token"`
	ResponseKeys      []string          `yaml:"response_keys"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
}

func (e EndpointConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds * float64(time.Second))
}

type DatasetConfig struct {
	Path            string `yaml:"path"`
	FeaturesColumn  string `yaml:"features_column"`
	LabelsColumn    string `yaml:"labels_column"`
	SensitiveColumn string `yaml:"sensitive_column"`
	FeaturesFormat  string `yaml:"features_format"`
}

// FairnessConfig keeps pointers so an omitted threshold can be told apart
// from an explicit zero.
type FairnessConfig struct {
	DemographicParityThreshold *float64 `yaml:"demographic_parity_threshold"`
	EqualOpportunityThreshold  *float64 `yaml:"equal_opportunity_threshold"`
	DisparateImpactThreshold   *float64 `yaml:"disparate_impact_threshold"`
	MaxFailureRate             *float64 `yaml:"max_failure_rate"`
}

type ExecutionConfig struct {
	Concurrency int `yaml:"concurrency"`
}

func (c Config) Thresholds() types.Thresholds {
	th := types.DefaultThresholds()
	if v := c.Fairness.DemographicParityThreshold; v != nil {
		th.DemographicParity = *v
	}
	if v := c.Fairness.EqualOpportunityThreshold; v != nil {
		th.EqualOpportunity = *v
	}
	if v := c.Fairness.DisparateImpactThreshold; v != nil {
		th.DisparateImpact = types.Float(*v)
	}
	return th
}

func (c Config) MaxFailureRate() float64 {
	if c.Fairness.MaxFailureRate == nil {
		return DefaultMaxFailureRate
	}
	return *c.Fairness.MaxFailureRate
}

// Load reads, schema-checks, defaults, and validates a YAML configuration.
// Every failure wraps ErrInvalid.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read config %s: %w", ErrInvalid, path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Dataset.Path = resolvePath(path, cfg.Dataset.Path)
	return cfg, nil
}

// Parse is Load without the file system: dataset paths stay as written.
func Parse(raw []byte) (Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("%w: parse yaml: %w", ErrInvalid, err)
	}
	if doc == nil {
		return Config{}, fmt.Errorf("%w: configuration is empty", ErrInvalid)
	}
	s, err := compiledSchema()
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	problems, err := s.Validate(doc)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode config: %w", ErrInvalid, err)
	}
	cfg.applyDefaults()
	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Endpoint.Method == "" {
		c.Endpoint.Method = DefaultMethod
	}
	c.Endpoint.Method = strings.ToUpper(strings.TrimSpace(c.Endpoint.Method))
	if c.Endpoint.TimeoutSeconds == 0 {
		c.Endpoint.TimeoutSeconds = DefaultTimeout.Seconds()
	}
	if len(c.Endpoint.ResponseKeys) == 0 {
		c.Endpoint.ResponseKeys = append([]string(nil), DefaultResponseKeys...)
	}
	if c.Endpoint.Headers == nil {
		c.Endpoint.Headers = map[string]string{}
	}
	if c.Dataset.FeaturesColumn == "" {
		c.Dataset.FeaturesColumn = "features"
	}
	if c.Dataset.LabelsColumn == "" {
		c.Dataset.LabelsColumn = "label"
	}
	if c.Dataset.SensitiveColumn == "" {
		c.Dataset.SensitiveColumn = "sensitive_attribute"
	}
	if c.Dataset.FeaturesFormat == "" {
		c.Dataset.FeaturesFormat = FeaturesRaw
	}
	if c.Execution.Concurrency == 0 {
		c.Execution.Concurrency = DefaultConcurrency
	}
}

func (c *Config) expandEnv() {
	c.Endpoint.AuthToken = os.ExpandEnv(c.Endpoint.AuthToken)
	for k, v := range c.Endpoint.Headers {
		c.Endpoint.Headers[k] = os.ExpandEnv(v)
	}
}

// Validate checks the semantic constraints the schema cannot express.
func (c Config) Validate() error {
	problems := make([]string, 0)
	u, err := url.Parse(c.Endpoint.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("endpoint.url %q must be an absolute URL", c.Endpoint.URL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		problems = append(problems, fmt.Sprintf("endpoint.url scheme %q is not http or https", u.Scheme))
	}
	if c.Endpoint.Method != "GET" && c.Endpoint.Method != "POST" {
		problems = append(problems, "endpoint.method must be GET or POST")
	}
	if c.Endpoint.TimeoutSeconds <= 0 {
		problems = append(problems, "endpoint.timeout must be positive")
	}
	if strings.TrimSpace(c.Dataset.Path) == "" {
		problems = append(problems, "dataset.path is required")
	}
	cols := map[string]string{}
	for name, col := range map[string]string{
		"features_column":  c.Dataset.FeaturesColumn,
		"labels_column":    c.Dataset.LabelsColumn,
		"sensitive_column": c.Dataset.SensitiveColumn,
	} {
		if other, ok := cols[col]; ok {
			a, b := other, name
			if a > b {
				a, b = b, a
			}
			problems = append(problems, fmt.Sprintf("dataset.%s and dataset.%s both name column %q", a, b, col))
		}
		cols[col] = name
	}
	if c.Dataset.FeaturesFormat != FeaturesRaw && c.Dataset.FeaturesFormat != FeaturesJSON {
		problems = append(problems, "dataset.features_format must be raw or json")
	}
	for name, v := range map[string]*float64{
		"demographic_parity_threshold": c.Fairness.DemographicParityThreshold,
		"equal_opportunity_threshold":  c.Fairness.EqualOpportunityThreshold,
		"disparate_impact_threshold":   c.Fairness.DisparateImpactThreshold,
		"max_failure_rate":             c.Fairness.MaxFailureRate,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			problems = append(problems, fmt.Sprintf("fairness.%s must be within [0, 1]", name))
		}
	}
	if c.Execution.Concurrency < 1 {
		problems = append(problems, "execution.concurrency must be at least 1")
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// resolvePath prefers a path that exists relative to the working directory,
// then one relative to the config file.
func resolvePath(configPath, candidate string) string {
	if candidate == "" || filepath.IsAbs(candidate) {
		return candidate
	}
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	joined := filepath.Clean(filepath.Join(filepath.Dir(configPath), candidate))
	if _, err := os.Stat(joined); err == nil {
		return joined
	}
	return candidate
}
