package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edascope/internal/dataset"
	"github.com/KaramelBytes/edascope/internal/parser"
	"github.com/KaramelBytes/edascope/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DatasetPath string `mapstructure:"dataset_path" yaml:"dataset_path" validate:"required"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding" validate:"required"`
	Delimiter   string `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet       string `mapstructure:"sheet" yaml:"sheet"`
	ReportPath  string `mapstructure:"report_path" yaml:"report_path" validate:"required"`

	// Title is shown at the top of the exploration. Empty derives it from the dataset name.
	Title string `mapstructure:"title" yaml:"title"`

	NAValues        []string `mapstructure:"na_values" yaml:"na_values,omitempty"`
	RequiredColumns []string `mapstructure:"required_columns" yaml:"required_columns,omitempty" validate:"dive,required"`

	// ColumnTypes holds "column=type" pairs; viper lowercases map keys.
	ColumnTypes []string `mapstructure:"column_types" yaml:"column_types,omitempty" validate:"dive,required"`

	// Output
	XLSXPath    string `mapstructure:"xlsx_path" yaml:"xlsx_path"`
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows" validate:"gte=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	// HTTP presentation layer
	ServeAddr   string `mapstructure:"serve_addr" yaml:"serve_addr" validate:"required"`
	MaxSessions int    `mapstructure:"max_sessions" yaml:"max_sessions" validate:"gte=1"`
}

// LoadOptions converts the dataset settings into loader options.
func (c *Global) LoadOptions() (dataset.LoadOptions, error) {
	delim, err := parser.ParseDelimiter(c.Delimiter)
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	opt := dataset.LoadOptions{
		Encoding:        c.Encoding,
		Delimiter:       delim,
		Sheet:           c.Sheet,
		NAValues:        c.NAValues,
		RequiredColumns: c.RequiredColumns,
	}
	types, err := parseColumnTypes(c.ColumnTypes)
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	opt.ColumnTypes = types
	return opt, nil
}

func parseColumnTypes(pairs []string) (map[string]dataset.ColumnType, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]dataset.ColumnType, len(pairs))
	for _, pair := range pairs {
		col, typ, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid column_types entry %q (use col=type)", pair)
		}
		ct, err := dataset.ParseColumnType(strings.TrimSpace(typ))
		if err != nil {
			return nil, fmt.Errorf("column_types.%s: %w", strings.TrimSpace(col), err)
		}
		out[strings.TrimSpace(col)] = ct
	}
	return out, nil
}

// Validate checks the configuration against its struct tags.
func (c *Global) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := parser.ParseDelimiter(c.Delimiter); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := parseColumnTypes(c.ColumnTypes); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Keys returns the settable keys in a stable order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var defaults = map[string]any{
	"dataset_path":     "olympic_medals.csv",
	"encoding":         parser.DefaultEncoding,
	"delimiter":        "",
	"sheet":            "",
	"report_path":      "summary_olympic_analysis.txt",
	"title":            "",
	"na_values":        nil,
	"required_columns": nil,
	"column_types":     nil,
	"xlsx_path":        "",
	"preview_rows":     10,
	"log_level":        "info",
	"log_format":       "text",
	"serve_addr":       ":8080",
	"max_sessions":     64,
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.edascope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDASCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		if dir, err := defaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".edascope"), nil
}

// Set assigns a single key from its string form, as used by `config set`.
// List values are comma separated; column_types takes "col=type" pairs.
// c is left unchanged when the result would not validate.
func (c *Global) Set(key, val string) error {
	next := *c
	if err := next.assign(key, val); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Global) assign(key, val string) error {
	switch key {
	case "dataset_path":
		c.DatasetPath = val
	case "encoding":
		if _, err := parser.LookupEncoding(val); err != nil {
			return err
		}
		c.Encoding = val
	case "delimiter":
		if _, err := parser.ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "sheet":
		c.Sheet = val
	case "report_path":
		c.ReportPath = val
	case "title":
		c.Title = val
	case "na_values":
		c.NAValues = splitList(val)
	case "required_columns":
		c.RequiredColumns = splitList(val)
	case "column_types":
		pairs := splitList(val)
		if _, err := parseColumnTypes(pairs); err != nil {
			return err
		}
		c.ColumnTypes = pairs
	case "xlsx_path":
		c.XLSXPath = val
	case "preview_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for preview_rows: %v", val)
		}
		c.PreviewRows = i
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	case "serve_addr":
		c.ServeAddr = val
	case "max_sessions":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for max_sessions: %v", val)
		}
		c.MaxSessions = i
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
