package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"fluidcss/common"
	"fluidcss/fluid"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

// Reserved keys of viewport_widths used when fluid() argument has no
// viewport width.
const (
	DefaultFromKey = "DEFAULT_FROM"
	DefaultToKey   = "DEFAULT_TO"
)

// badFileName replaces names which have nothing usable left after cleaning.
const badFileName = "_bad_file_name_"

type (
	FluidConfig struct {
		FunctionNames   []string          `yaml:"function_names" validate:"min=1,dive,required"`
		ViewportWidths  map[string]string `yaml:"viewport_widths" validate:"dive,keys,required,endkeys,required"`
		UseLogicalUnits bool              `yaml:"use_logical_units"`
		RootFontSize    float64           `yaml:"root_font_size" validate:"gt=0"`
		Precision       int               `yaml:"precision" validate:"min=0,max=100"`
		CacheSize       int               `yaml:"cache_size" validate:"gte=0"`
	}

	ProcessingConfig struct {
		Mode       common.OutputMode `yaml:"mode" validate:"gte=0"`
		Jobs       int               `yaml:"jobs" validate:"gte=0"`
		Extensions []string          `yaml:"extensions" validate:"min=1,dive,required,startswith=."`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Fluid      FluidConfig      `yaml:"fluid"`
		Processing ProcessingConfig `yaml:"processing"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

// Options returns solver options for this configuration.
func (conf *FluidConfig) Options() fluid.Options {
	return fluid.Options{
		UseLogicalUnits: conf.UseLogicalUnits,
		RootFontSize:    conf.RootFontSize,
		Precision:       conf.Precision,
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
