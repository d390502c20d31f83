// Package config loads and validates job configuration via Viper.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/bank-cap-etl/internal/etl"
	"github.com/JakeFAU/bank-cap-etl/internal/logging"
	"github.com/JakeFAU/bank-cap-etl/internal/pipeline"
)

// DefaultSourceURL is the archived snapshot of the Wikipedia bank ranking.
const DefaultSourceURL = "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks"

// Archive providers.
const (
	ArchiveNone   = "none"
	ArchiveLocal  = "local"
	ArchiveGCS    = "gcs"
	ArchiveMemory = "memory"
)

var identifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config captures all job configuration knobs loaded via Viper.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Output   OutputConfig   `mapstructure:"output"`
	Store    StoreConfig    `mapstructure:"store"`
	Queries  []string       `mapstructure:"queries"`
	Progress ProgressConfig `mapstructure:"progress"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  logging.Config `mapstructure:"logging"`
}

// SourceConfig locates the ranking table.
type SourceConfig struct {
	URL        string         `mapstructure:"url"`
	TableIndex int            `mapstructure:"table_index"`
	Columns    etl.ColumnSpec `mapstructure:"columns"`
}

// RatesConfig names the exchange-rate file and the currencies to derive.
type RatesConfig struct {
	Path    string               `mapstructure:"path"`
	Targets []etl.TargetCurrency `mapstructure:"targets"`
}

// OutputConfig controls the CSV sink.
type OutputConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

// StoreConfig controls access to the relational database.
type StoreConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// ProgressConfig sets the progress log location.
type ProgressConfig struct {
	Path string `mapstructure:"path"`
}

// ArchiveConfig selects where fetched pages are archived.
type ArchiveConfig struct {
	Provider    string `mapstructure:"provider"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
	BaseDir     string `mapstructure:"base_dir"`
	Bucket      string `mapstructure:"bucket"`
}

// NotifyConfig holds the Pub/Sub topic that receives run summaries.
type NotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// MetricsConfig sets the node-exporter textfile path. Empty disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// HTTPConfig configures the page fetch.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BANKETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	cols := etl.DefaultColumnSpec()
	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.table_index", 0)
	v.SetDefault("source.columns.name_cell", cols.NameCell)
	v.SetDefault("source.columns.name_link", cols.NameLink)
	v.SetDefault("source.columns.value_cell", cols.ValueCell)
	v.SetDefault("source.columns.min_cells", cols.MinCells)
	v.SetDefault("source.columns.name_field", cols.NameField)
	v.SetDefault("source.columns.value_field", cols.ValueField)

	targets := make([]map[string]any, 0, len(etl.DefaultTargets()))
	for _, t := range etl.DefaultTargets() {
		targets = append(targets, map[string]any{"code": t.Code, "field": t.Field})
	}
	v.SetDefault("rates.path", "exchange_rate.csv")
	v.SetDefault("rates.targets", targets)

	v.SetDefault("output.csv_path", "./Largest_banks_data.csv")
	v.SetDefault("store.dsn", "postgres://localhost:5432/banks?sslmode=disable")
	v.SetDefault("store.table", "Largest_banks")
	v.SetDefault("store.max_conns", 2)
	v.SetDefault("store.max_conn_lifetime", "5m")
	v.SetDefault("queries", []string{
		"SELECT * FROM Largest_banks",
		"SELECT AVG(MC_GBP_Billion) FROM Largest_banks",
		"SELECT Name from Largest_banks LIMIT 5",
	})
	v.SetDefault("progress.path", "./code_log.txt")
	v.SetDefault("archive.provider", ArchiveNone)
	v.SetDefault("archive.prefix", "raw")
	v.SetDefault("archive.content_type", "text/html; charset=utf-8")
	v.SetDefault("http.user_agent", "bank-cap-etl/0.1")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source.url is required")
	}
	if c.Source.TableIndex < 0 {
		return fmt.Errorf("source.table_index must be >= 0")
	}
	if strings.TrimSpace(c.Rates.Path) == "" {
		return fmt.Errorf("rates.path is required")
	}
	if len(c.Rates.Targets) == 0 {
		return fmt.Errorf("rates.targets must name at least one currency")
	}
	if strings.TrimSpace(c.Output.CSVPath) == "" {
		return fmt.Errorf("output.csv_path is required")
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if !identifier.MatchString(c.Store.Table) {
		return fmt.Errorf("store.table %q is not a valid identifier", c.Store.Table)
	}
	if strings.TrimSpace(c.Progress.Path) == "" {
		return fmt.Errorf("progress.path is required")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Archive.Provider {
	case ArchiveNone, ArchiveMemory:
	case ArchiveLocal:
		if strings.TrimSpace(c.Archive.BaseDir) == "" {
			return fmt.Errorf("archive.base_dir must be set when archive.provider is local")
		}
	case ArchiveGCS:
		if strings.TrimSpace(c.Archive.Bucket) == "" {
			return fmt.Errorf("archive.bucket must be set when archive.provider is gcs")
		}
	default:
		return fmt.Errorf("archive.provider %q is not one of none, local, gcs, memory", c.Archive.Provider)
	}
	if c.Notify.Topic != "" && strings.TrimSpace(c.Notify.ProjectID) == "" {
		return fmt.Errorf("notify.project_id must be set when notify.topic is set")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout to a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RunConfig builds the explicit per-run configuration.
func (c Config) RunConfig() pipeline.RunConfig {
	prefix := ""
	if c.Archive.Provider != ArchiveNone {
		prefix = c.Archive.Prefix
	}
	return pipeline.RunConfig{
		SourceURL:          c.Source.URL,
		TableIndex:         c.Source.TableIndex,
		Columns:            c.Source.Columns,
		RatesPath:          c.Rates.Path,
		Targets:            append([]etl.TargetCurrency(nil), c.Rates.Targets...),
		CSVPath:            c.Output.CSVPath,
		Table:              c.Store.Table,
		Queries:            append([]string(nil), c.Queries...),
		ArchivePrefix:      prefix,
		ArchiveContentType: c.Archive.ContentType,
		NotifyTopic:        c.Notify.Topic,
		MetricsTextfile:    c.Metrics.Textfile,
	}
}
