// Package config loads the YAML configuration of the dmatrix command.
//
// ${VAR} and ${VAR:-default} references are replaced with environment values
// before parsing.
//
//	log:
//	  level: info
//	data:
//	  path: ${DATA_DIR}/train.csv
//	  label: y
//	cv:
//	  params: {objective: binary:logistic}
//	  nfold: 5
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/dmatrix/cv"
	"github.com/YuminosukeSato/dmatrix/pkg/errors"
	"github.com/YuminosukeSato/dmatrix/pkg/log"
)

// Config is the root of a config file.
type Config struct {
	Log  LogConfig  `yaml:"log"`
	Data DataConfig `yaml:"data"`
	CV   cv.Config  `yaml:"cv"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "warn"},
		CV:  cv.Config{NumBoostRound: cv.DefaultNumBoostRound, NFold: cv.DefaultNFold},
	}
}

// Load reads path on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, "parsing YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that can be checked without data.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidationError("log.level", "unknown level", c.Log.Level)
	}
	if c.CV.NumBoostRound < 0 {
		return errors.NewValidationError("cv.num_boost_round", "must be non-negative", c.CV.NumBoostRound)
	}
	if _, err := c.CV.Options(); err != nil {
		return err
	}
	return c.Data.Validate()
}

// substituteEnvVars replaces ${NAME} with the environment value of NAME and
// ${NAME:-fallback} with fallback when NAME is unset or empty.
func substituteEnvVars(content string) string {
	var sb strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		name, fallback, hasFallback := strings.Cut(content[start+2:end], ":-")
		value := os.Getenv(name)
		if value == "" && hasFallback {
			value = fallback
		}
		sb.WriteString(content[:start])
		sb.WriteString(value)
		content = content[end+1:]
	}
	sb.WriteString(content)
	return sb.String()
}
