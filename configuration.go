package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/thlib/go-timezone-local/tzlocal"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("timezone", validateTimezone)
}

func validateTimezone(fl validator.FieldLevel) bool {
	timezone := fl.Field().String()
	if timezone == "" {
		return true // Empty timezone is allowed, will be replaced with system default
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// CurrencyList is a single currency code or a list of codes in YAML.
type CurrencyList []string

func (c *CurrencyList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var code string
		if err := value.Decode(&code); err != nil {
			return err
		}
		*c = CurrencyList{code}
	case yaml.SequenceNode:
		var codes []string
		if err := value.Decode(&codes); err != nil {
			return err
		}
		*c = codes
	default:
		return fmt.Errorf("line %d: currency must be a code or a list of codes", value.Line)
	}
	return nil
}

type ProcessingConfig struct {
	// ReprocessSkippedTransactions asks again about transactions skipped in earlier runs.
	ReprocessSkippedTransactions bool `yaml:"reprocessSkippedTransactions"`
	HeaderSearchRows             int  `yaml:"headerSearchRows,omitempty" validate:"min=0,max=1000"`
	HeaderMatchPercent           int  `yaml:"headerMatchPercent,omitempty" validate:"min=0,max=100"`
}

type ProcessorConfig struct {
	// Institution name, by default derived from processor name.
	Institution     string `yaml:"institution,omitempty"`
	InstitutionType string `yaml:"institutionType,omitempty" validate:"omitempty,min=2"`
	// ExtractionFolder is where statement files of the processor are looked for.
	ExtractionFolder string       `yaml:"extractionFolder,omitempty"`
	Currency         CurrencyList `yaml:"currency,omitempty"`

	// Resolved values.
	Profile    ProcessorProfile `yaml:"-"`
	Currencies []string         `yaml:"-"`
}

type Config struct {
	DatabasePath     string                      `yaml:"databasePath" validate:"required"`
	CategoriesPath   string                      `yaml:"categoriesPath,omitempty"`
	TimeZoneLocation string                      `yaml:"timeZoneLocation,omitempty" validate:"timezone"`
	Processing       ProcessingConfig            `yaml:"processing,omitempty"`
	Processors       map[string]*ProcessorConfig `yaml:"processors" validate:"required,min=1,dive,required"`

	Location *time.Location `yaml:"-"`
	// Warnings about ignored values, for the operator.
	Warnings []string `yaml:"-"`
}

// resolvePath makes path relative to the configuration file directory.
func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func readConfig(filename string) (*Config, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	decoder := yaml.NewDecoder(strings.NewReader(string(buf)))
	decoder.KnownFields(true) // Disallow unknown fields
	if err = decoder.Decode(cfg); err != nil {
		if err.Error() == "EOF" {
			return nil, fmt.Errorf("can't decode YAML from configuration file '%s': %v", filename, err)
		}
		return nil, err
	}

	// Validate fields before defaults hide missing ones.
	if err = validate.Struct(cfg); err != nil {
		return nil, err
	}

	// Set default values.
	if len(cfg.TimeZoneLocation) == 0 {
		tzname, err := tzlocal.RuntimeTZ()
		if err != nil {
			// Fallback to UTC if system timezone cannot be determined
			cfg.TimeZoneLocation = "UTC"
		} else {
			cfg.TimeZoneLocation = tzname
		}
	}
	cfg.Location, err = time.LoadLocation(cfg.TimeZoneLocation)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone location '%s': %w", cfg.TimeZoneLocation, err)
	}
	if cfg.CategoriesPath == "" {
		cfg.CategoriesPath = DEFAULT_CATEGORIES_FILE_PATH
	}
	if cfg.Processing.HeaderSearchRows == 0 {
		cfg.Processing.HeaderSearchRows = defaultHeaderSearchRows
	}
	if cfg.Processing.HeaderMatchPercent == 0 {
		cfg.Processing.HeaderMatchPercent = defaultHeaderMatchPercent
	}

	baseDir := filepath.Dir(filename)
	cfg.DatabasePath = resolvePath(baseDir, cfg.DatabasePath)
	cfg.CategoriesPath = resolvePath(baseDir, cfg.CategoriesPath)

	// Resolve processors against the registry.
	for _, name := range cfg.processorNames() {
		processor := cfg.Processors[name]
		profile, err := lookupProcessor(name)
		if err != nil {
			return nil, fmt.Errorf("processors: %w", err)
		}
		processor.Profile = profile
		if processor.Institution == "" {
			processor.Institution = institutionNameFor(profile.Kind)
		}
		if processor.InstitutionType == "" {
			processor.InstitutionType = "bank"
		}
		processor.ExtractionFolder = resolvePath(baseDir, processor.ExtractionFolder)
		valid, dropped := normalizeCurrencies(processor.Currency)
		for _, code := range dropped {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf(
				"processor '%s': ignoring invalid currency code '%s'", name, code,
			))
		}
		if len(valid) == 0 {
			valid = []string{profile.DefaultCurrency}
		}
		processor.Currencies = valid
	}

	return cfg, nil
}

// processorNames returns configured processor names sorted.
func (cfg *Config) processorNames() []string {
	names := make([]string, 0, len(cfg.Processors))
	for name := range cfg.Processors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// processor returns configuration of the processor by name. Empty name is allowed when
// only one processor is configured.
func (cfg *Config) processor(name string) (*ProcessorConfig, error) {
	if name == "" {
		if len(cfg.Processors) != 1 {
			return nil, fmt.Errorf(
				"several processors configured, choose one of: %s",
				strings.Join(cfg.processorNames(), ", "),
			)
		}
		name = cfg.processorNames()[0]
	}
	processor, ok := cfg.Processors[name]
	if !ok {
		return nil, fmt.Errorf(
			"processor '%s' is not configured, configured: %s",
			name, strings.Join(cfg.processorNames(), ", "),
		)
	}
	return processor, nil
}
