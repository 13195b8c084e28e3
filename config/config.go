// Package config loads process-wide filter and sort defaults from a YAML
// file, SIEVE_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/sorting"
)

// EnvPrefix prefixes environment overrides, e.g. SIEVE_FILTER_CULTURE.
const EnvPrefix = "SIEVE"

// Settings is the decoded configuration file.
type Settings struct {
	LogLevel string         `mapstructure:"log_level"`
	Filter   FilterSettings `mapstructure:"filter"`
	Sort     SortSettings   `mapstructure:"sort"`
}

// OperatorToken maps one syntax token to an operator name.
type OperatorToken struct {
	Token    string `mapstructure:"token"`
	Operator string `mapstructure:"operator"`
}

type FilterSettings struct {
	Culture                         string   `mapstructure:"culture"`
	Timezone                        string   `mapstructure:"timezone"`
	BoolTrueStrings                 []string `mapstructure:"bool_true_strings"`
	BoolFalseStrings                []string `mapstructure:"bool_false_strings"`
	IgnoreParseExceptions           bool     `mapstructure:"ignore_parse_exceptions"`
	CaseInsensitivePropertyMatching bool     `mapstructure:"case_insensitive_property_matching"`
	// Operators replaces the built-in token table when set.
	Operators []OperatorToken `mapstructure:"operators"`
}

type SortSettings struct {
	AscendingPrefixes               []string `mapstructure:"ascending_prefixes"`
	AscendingPostfixes              []string `mapstructure:"ascending_postfixes"`
	DescendingPrefixes              []string `mapstructure:"descending_prefixes"`
	DescendingPostfixes             []string `mapstructure:"descending_postfixes"`
	IgnoreParseExceptions           bool     `mapstructure:"ignore_parse_exceptions"`
	CaseInsensitivePropertyMatching bool     `mapstructure:"case_insensitive_property_matching"`
	ConditionalAccess               string   `mapstructure:"conditional_access"`
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a sieve.yaml configuration file")
	fs.String("log-level", "", "log level (debug|info|warn|error|none)")
	fs.String("culture", "", "BCP 47 culture for numbers and case folding")
	fs.String("timezone", "", "IANA time zone for dates without an offset")
	fs.Bool("ignore-parse-errors", false, "drop unparseable filters and sort tokens instead of failing")
	fs.Bool("case-insensitive", false, "match property names case-insensitively")
	fs.String("conditional-access", "", "null-safe sort navigation (ifNeeded|never|always)")
}

var flagKeys = map[string][]string{
	"log-level":           {"log_level"},
	"culture":             {"filter.culture"},
	"timezone":            {"filter.timezone"},
	"ignore-parse-errors": {"filter.ignore_parse_exceptions", "sort.ignore_parse_exceptions"},
	"case-insensitive":    {"filter.case_insensitive_property_matching", "sort.case_insensitive_property_matching"},
	"conditional-access":  {"sort.conditional_access"},
}

// Load reads the configuration. fs may be nil; otherwise flags registered by
// BindFlags that were set on the command line take precedence. Without a
// --config flag, sieve.yaml is looked up in the working directory and is
// optional.
func Load(fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFile string
	if fs != nil {
		for name, keys := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			for _, key := range keys {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
		if flag := fs.Lookup("config"); flag != nil {
			configFile = flag.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("sieve")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading configuration: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	f := filter.DefaultConfiguration()
	s := sorting.DefaultConfiguration()

	v.SetDefault("log_level", "none")
	v.SetDefault("filter.culture", f.Culture.String())
	v.SetDefault("filter.timezone", "Local")
	v.SetDefault("filter.bool_true_strings", f.BoolTrueStrings)
	v.SetDefault("filter.bool_false_strings", f.BoolFalseStrings)
	v.SetDefault("filter.ignore_parse_exceptions", f.IgnoreParseExceptions)
	v.SetDefault("filter.case_insensitive_property_matching", f.CaseInsensitivePropertyMatching)
	v.SetDefault("sort.ascending_prefixes", s.AscendingPrefixes)
	v.SetDefault("sort.ascending_postfixes", s.AscendingPostfixes)
	v.SetDefault("sort.descending_prefixes", s.DescendingPrefixes)
	v.SetDefault("sort.descending_postfixes", s.DescendingPostfixes)
	v.SetDefault("sort.ignore_parse_exceptions", s.IgnoreParseExceptions)
	v.SetDefault("sort.case_insensitive_property_matching", s.CaseInsensitivePropertyMatching)
	v.SetDefault("sort.conditional_access", s.ConditionalAccess.String())
}

// Logger builds the logger selected by LogLevel. "none" discards output.
func (s *Settings) Logger() (*zap.Logger, error) {
	if s.LogLevel == "" || strings.EqualFold(s.LogLevel, "none") {
		return zap.NewNop(), nil
	}
	level, err := zap.ParseAtomicLevel(s.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	return cfg.Build()
}

// FilterConfiguration converts the filter settings.
func (s *Settings) FilterConfiguration(logger *zap.Logger) (*filter.Configuration, error) {
	cfg := filter.DefaultConfiguration()
	fs := s.Filter

	if fs.Culture != "" {
		tag, err := language.Parse(fs.Culture)
		if err != nil {
			return nil, fmt.Errorf("invalid culture %q: %w", fs.Culture, err)
		}
		cfg.Culture = tag
	}
	if fs.Timezone != "" {
		loc, err := time.LoadLocation(fs.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", fs.Timezone, err)
		}
		cfg.Location = loc
	}
	if len(fs.BoolTrueStrings) > 0 {
		cfg.BoolTrueStrings = fs.BoolTrueStrings
	}
	if len(fs.BoolFalseStrings) > 0 {
		cfg.BoolFalseStrings = fs.BoolFalseStrings
	}
	if len(fs.Operators) > 0 {
		tokens := map[string]filter.Operator{"": filter.Default}
		for _, ot := range fs.Operators {
			op, ok := parseOperator(ot.Operator)
			if !ok {
				return nil, fmt.Errorf("unknown operator %q for token %q", ot.Operator, ot.Token)
			}
			tokens[ot.Token] = op
		}
		cfg.Operators = tokens
	}
	cfg.IgnoreParseExceptions = fs.IgnoreParseExceptions
	cfg.CaseInsensitivePropertyMatching = fs.CaseInsensitivePropertyMatching
	if logger != nil {
		cfg.Logger = logger
	}
	return cfg, nil
}

func parseOperator(name string) (filter.Operator, bool) {
	for _, op := range filter.Operators {
		if strings.EqualFold(string(op), name) {
			return op, true
		}
	}
	return "", false
}

// SortConfiguration converts the sort settings.
func (s *Settings) SortConfiguration(logger *zap.Logger) (*sorting.Configuration, error) {
	cfg := sorting.DefaultConfiguration()
	ss := s.Sort

	cfg.AscendingPrefixes = ss.AscendingPrefixes
	cfg.AscendingPostfixes = ss.AscendingPostfixes
	cfg.DescendingPrefixes = ss.DescendingPrefixes
	cfg.DescendingPostfixes = ss.DescendingPostfixes
	cfg.IgnoreParseExceptions = ss.IgnoreParseExceptions
	cfg.CaseInsensitivePropertyMatching = ss.CaseInsensitivePropertyMatching
	if ss.ConditionalAccess != "" {
		access, ok := sorting.ParseConditionalAccess(ss.ConditionalAccess)
		if !ok {
			return nil, fmt.Errorf("invalid conditional access %q", ss.ConditionalAccess)
		}
		cfg.ConditionalAccess = access
	}
	if logger != nil {
		cfg.Logger = logger
	}
	return cfg, nil
}

// Install converts the settings and makes them the process-wide defaults.
func (s *Settings) Install(logger *zap.Logger) error {
	fc, err := s.FilterConfiguration(logger)
	if err != nil {
		return err
	}
	sc, err := s.SortConfiguration(logger)
	if err != nil {
		return err
	}
	filter.SetDefaultConfiguration(fc)
	sorting.SetDefaultConfiguration(sc)
	return nil
}
