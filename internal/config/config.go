package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/sitesales/internal/salesmodel"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Dataset    DatasetConfig    `yaml:"dataset" mapstructure:"dataset"`
	Transit    TransitConfig    `yaml:"transit" mapstructure:"transit"`
	Model      ModelConfig      `yaml:"model" mapstructure:"model"`
	Categories []CategoryConfig `yaml:"categories" mapstructure:"categories"`
	Recommend  RecommendConfig  `yaml:"recommend" mapstructure:"recommend"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                  int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins        []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit             float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst             int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	ReadHeaderTimeoutSecs int      `yaml:"read_header_timeout_secs" mapstructure:"read_header_timeout_secs"`
}

// DatasetConfig selects where district rows are loaded from.
type DatasetConfig struct {
	// Driver is csv, postgres or sqlite.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	Encoding    string `yaml:"encoding" mapstructure:"encoding"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Table       string `yaml:"table" mapstructure:"table"`
}

// TransitConfig configures the station list and its Overpass source.
type TransitConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	OverpassURL  string `yaml:"overpass_url" mapstructure:"overpass_url"`
	OverpassArea string `yaml:"overpass_area" mapstructure:"overpass_area"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`

	// RetryAttempts bounds tries per Overpass query.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
}

// ModelConfig locates the label vocabulary and model artifacts.
type ModelConfig struct {
	LabelsPath string              `yaml:"labels_path" mapstructure:"labels_path"`
	Families   []salesmodel.Family `yaml:"families" mapstructure:"families"`
}

// CategoryConfig maps a request category code to its dataset label.
type CategoryConfig struct {
	Code  string `yaml:"code" mapstructure:"code"`
	Label string `yaml:"label" mapstructure:"label"`
}

// RecommendConfig configures the grid sweep.
type RecommendConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultCategories are served when no categories are configured.
var DefaultCategories = []CategoryConfig{
	{Code: "I212", Label: "커피-음료"},
	{Code: "I201", Label: "한식음식점"},
	{Code: "I202", Label: "중식음식점"},
}

// DefaultFamilies are the model families used when none are configured.
// Korean and Chinese restaurants share one model.
var DefaultFamilies = []salesmodel.Family{
	{Labels: []string{"한식음식점", "중식음식점"}, Path: "models/restaurant.json"},
	{Labels: []string{"커피-음료"}, Path: "models/coffee.json"},
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITESALES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.read_header_timeout_secs", 10)
	v.SetDefault("dataset.driver", "csv")
	v.SetDefault("dataset.path", "data/districts.csv")
	v.SetDefault("dataset.encoding", "cp949")
	v.SetDefault("dataset.table", "district_sales")
	v.SetDefault("transit.path", "data/stations.csv")
	v.SetDefault("transit.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("transit.overpass_area", "서울특별시")
	v.SetDefault("transit.timeout_secs", 90)
	v.SetDefault("transit.retry_attempts", 3)
	v.SetDefault("model.labels_path", "models/labels.yaml")
	v.SetDefault("recommend.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Lists of structs cannot carry viper defaults.
	if len(cfg.Categories) == 0 {
		cfg.Categories = append([]CategoryConfig(nil), DefaultCategories...)
	}
	if len(cfg.Model.Families) == 0 {
		cfg.Model.Families = append([]salesmodel.Family(nil), DefaultFamilies...)
	}

	return &cfg, nil
}

// CategoryMap returns categories as code -> label with upper-cased codes.
func (c *Config) CategoryMap() map[string]string {
	out := make(map[string]string, len(c.Categories))
	for _, cat := range c.Categories {
		out[strings.ToUpper(strings.TrimSpace(cat.Code))] = cat.Label
	}
	return out
}

// Validate checks the settings a command mode depends on. Modes are serve,
// predict, import and sync.
func (c *Config) Validate(mode string) error {
	var errs []string

	needsService := false
	switch mode {
	case "serve":
		needsService = true
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
			errs = append(errs, "server.rate_burst must be >= 1 when rate_limit is set")
		}
	case "predict":
		needsService = true
	case "import":
		errs = append(errs, c.validateDataset(true)...)
	case "sync":
		if c.Transit.Path == "" {
			errs = append(errs, "transit.path is required")
		}
		if c.Transit.OverpassArea == "" {
			errs = append(errs, "transit.overpass_area is required")
		}
		if c.Transit.RetryAttempts < 1 {
			errs = append(errs, "transit.retry_attempts must be >= 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needsService {
		errs = append(errs, c.validateDataset(false)...)
		if c.Model.LabelsPath == "" {
			errs = append(errs, "model.labels_path is required")
		}
		for i, fam := range c.Model.Families {
			if fam.Path == "" || len(fam.Labels) == 0 {
				errs = append(errs, fmt.Sprintf("model.families[%d] needs a path and labels", i))
			}
		}
		seen := make(map[string]bool, len(c.Categories))
		for i, cat := range c.Categories {
			code := strings.ToUpper(strings.TrimSpace(cat.Code))
			if code == "" || cat.Label == "" {
				errs = append(errs, fmt.Sprintf("categories[%d] needs a code and label", i))
				continue
			}
			if seen[code] {
				errs = append(errs, fmt.Sprintf("categories[%d] repeats code %s", i, code))
			}
			seen[code] = true
		}
		if c.Recommend.Workers < 1 || c.Recommend.Workers > 256 {
			errs = append(errs, "recommend.workers must be between 1 and 256")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateDataset checks the dataset source. For import the CSV path is
// the input and a SQL target is required.
func (c *Config) validateDataset(forImport bool) []string {
	var errs []string
	switch c.Dataset.Driver {
	case "csv":
		if forImport {
			errs = append(errs, "dataset.driver must be postgres or sqlite for import")
		}
	case "postgres":
		if c.Dataset.DatabaseURL == "" {
			errs = append(errs, "dataset.database_url is required for postgres")
		}
	case "sqlite":
		if c.Dataset.DatabaseURL == "" {
			errs = append(errs, "dataset.database_url is required for sqlite")
		}
	default:
		errs = append(errs, fmt.Sprintf("dataset.driver %q must be csv, postgres or sqlite", c.Dataset.Driver))
	}
	if (c.Dataset.Driver == "csv" || forImport) && c.Dataset.Path == "" {
		errs = append(errs, "dataset.path is required")
	}
	if c.Dataset.Driver != "csv" && c.Dataset.Table == "" {
		errs = append(errs, "dataset.table is required")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
