// Package config loads the settings of kfpc. Values come from, in order of
// precedence: environment variables, a dotenv file, a YAML file and the
// defaults. Command line flags are applied on top by the caller.
package config

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-kfp/pkg/babyweight"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KFP_"

// DefaultDotEnv is read when present. A missing file is not an error.
const DefaultDotEnv = ".env"

var (
	ErrInvalidStartStep = errors.New("invalid start step")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidEnv       = errors.New("invalid environment variable")
	ErrPublishNotSet    = errors.New("publish is not configured")
)

type Config struct {
	// StartStep is the first stage that runs. Earlier stages use canned outputs.
	StartStep int `yaml:"start_step"`

	Pipeline PipelineConfig `yaml:"pipeline"`
	Images   ImagesConfig   `yaml:"images"`
	Training TrainingConfig `yaml:"training"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
	Publish  PublishConfig  `yaml:"publish"`
}

type PipelineConfig struct {
	Version   string `yaml:"version"`
	Project   string `yaml:"project"`
	Bucket    string `yaml:"bucket"`
	StartYear string `yaml:"start_year"`
}

type ImagesConfig struct {
	Preprocess  string `yaml:"preprocess"`
	HyperTrain  string `yaml:"hypertrain"`
	Trainer     string `yaml:"trainer"`
	DeployModel string `yaml:"deploycmle"`
	DeployApp   string `yaml:"deployapp"`
}

type TrainingConfig struct {
	Workers          int `yaml:"workers"`
	ParameterServers int `yaml:"parameter_servers"`
	TimeoutMinutes   int `yaml:"timeout_minutes"`
}

type OutputConfig struct {
	Archive  string `yaml:"archive"`
	Manifest string `yaml:"manifest"`
	Graph    string `yaml:"graph"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PublishConfig locates the S3 compatible bucket receiving the archives.
type PublishConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	Region        string        `yaml:"region"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	Bucket        string        `yaml:"bucket"`
	Prefix        string        `yaml:"prefix"`
	UseSSL        bool          `yaml:"use_ssl"`
	MaxAttempts   int           `yaml:"max_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// Default returns the configuration compiling the whole pipeline.
func Default() *Config {
	opts := babyweight.DefaultOptions()

	return &Config{
		StartStep: opts.StartStep,
		Pipeline: PipelineConfig{
			Version:   opts.Version,
			Project:   opts.Project,
			Bucket:    opts.Bucket,
			StartYear: opts.StartYear,
		},
		Images: ImagesConfig(opts.Images),
		Training: TrainingConfig{
			Workers:          opts.Training.Workers,
			ParameterServers: opts.Training.ParameterServers,
			TimeoutMinutes:   opts.Training.TimeoutMinutes,
		},
		Output: OutputConfig{
			Archive: babyweight.Name + ".tar.gz",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Publish: PublishConfig{
			Region:        "us-east-1",
			Prefix:        "pipelines",
			UseSSL:        true,
			MaxAttempts:   5,
			RetryInterval: 2 * time.Second,
		},
	}
}

// Load reads the YAML file (skipped when fileName is empty) and the dotenv
// file, then applies the environment.
func Load(fileName, dotEnvFile string) (*Config, error) {
	return load(fileName, dotEnvFile, os.LookupEnv)
}

func load(fileName, dotEnvFile string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if fileName != "" {
		data, err := os.ReadFile(fileName)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read config file")
		}

		err = cfg.decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "config file %s", fileName)
		}
	}

	dotEnv, err := readDotEnv(dotEnvFile)
	if err != nil {
		return nil, err
	}

	err = cfg.applyEnv(func(key string) (string, bool) {
		if value, ok := lookup(key); ok {
			return value, true
		}

		value, ok := dotEnv[key]

		return value, ok
	})
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(c)
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "unable to decode yaml")
	}

	return nil
}

func readDotEnv(fileName string) (map[string]string, error) {
	if fileName == "" {
		return nil, nil
	}

	values, err := godotenv.Read(fileName)
	if errors.Is(err, fs.ErrNotExist) && fileName == DefaultDotEnv {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to read dotenv file %s", fileName)
	}

	return values, nil
}

func (c *Config) envBindings() map[string]func(string) error {
	return map[string]func(string) error{
		"START_STEP":                 intVar(&c.StartStep),
		"VERSION":                    stringVar(&c.Pipeline.Version),
		"PROJECT":                    stringVar(&c.Pipeline.Project),
		"BUCKET":                     stringVar(&c.Pipeline.Bucket),
		"START_YEAR":                 stringVar(&c.Pipeline.StartYear),
		"IMAGE_PREPROCESS":           stringVar(&c.Images.Preprocess),
		"IMAGE_HYPERTRAIN":           stringVar(&c.Images.HyperTrain),
		"IMAGE_TRAINER":              stringVar(&c.Images.Trainer),
		"IMAGE_DEPLOYCMLE":           stringVar(&c.Images.DeployModel),
		"IMAGE_DEPLOYAPP":            stringVar(&c.Images.DeployApp),
		"TRAINING_WORKERS":           intVar(&c.Training.Workers),
		"TRAINING_PARAMETER_SERVERS": intVar(&c.Training.ParameterServers),
		"TRAINING_TIMEOUT_MINUTES":   intVar(&c.Training.TimeoutMinutes),
		"OUTPUT_ARCHIVE":             stringVar(&c.Output.Archive),
		"OUTPUT_MANIFEST":            stringVar(&c.Output.Manifest),
		"OUTPUT_GRAPH":               stringVar(&c.Output.Graph),
		"LOG_LEVEL":                  stringVar(&c.Log.Level),
		"LOG_FORMAT":                 stringVar(&c.Log.Format),
		"PUBLISH_ENDPOINT":           stringVar(&c.Publish.Endpoint),
		"PUBLISH_REGION":             stringVar(&c.Publish.Region),
		"PUBLISH_ACCESS_KEY":         stringVar(&c.Publish.AccessKey),
		"PUBLISH_SECRET_KEY":         stringVar(&c.Publish.SecretKey),
		"PUBLISH_BUCKET":             stringVar(&c.Publish.Bucket),
		"PUBLISH_PREFIX":             stringVar(&c.Publish.Prefix),
		"PUBLISH_USE_SSL":            boolVar(&c.Publish.UseSSL),
		"PUBLISH_MAX_ATTEMPTS":       intVar(&c.Publish.MaxAttempts),
		"PUBLISH_RETRY_INTERVAL":     durationVar(&c.Publish.RetryInterval),
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for name, set := range c.envBindings() {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}

		err := set(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(ErrInvalidEnv, "%s%s: %s", EnvPrefix, name, err)
		}
	}

	return nil
}

func stringVar(dst *string) func(string) error {
	return func(value string) error {
		*dst = value

		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(value string) error {
		i, err := strconv.Atoi(value)
		if err != nil {
			return err
		}

		*dst = i

		return nil
	}
}

func boolVar(dst *bool) func(string) error {
	return func(value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}

		*dst = b

		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(value string) error {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*dst = d

		return nil
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.StartStep < int(babyweight.FirstStage) || c.StartStep > babyweight.SkipAll {
		return errors.Wrapf(ErrInvalidStartStep, "%d is not between %d and %d", c.StartStep, babyweight.FirstStage, babyweight.SkipAll)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalidLogFormat, "%q", c.Log.Format)
	}

	return nil
}

// Validate checks the settings needed to upload an archive.
func (p PublishConfig) Validate() error {
	var missing []string

	if p.Endpoint == "" {
		missing = append(missing, "endpoint")
	}

	if p.Bucket == "" {
		missing = append(missing, "bucket")
	}

	if p.AccessKey == "" || p.SecretKey == "" {
		missing = append(missing, "credentials")
	}

	if len(missing) > 0 {
		return errors.Wrapf(ErrPublishNotSet, "missing %s", strings.Join(missing, ", "))
	}

	return nil
}

// BuildOptions returns the assembler options described by the configuration.
func (c *Config) BuildOptions() babyweight.Options {
	return babyweight.Options{
		StartStep: c.StartStep,
		Version:   c.Pipeline.Version,
		Project:   c.Pipeline.Project,
		Bucket:    c.Pipeline.Bucket,
		StartYear: c.Pipeline.StartYear,
		Images:    babyweight.Images(c.Images),
		Training: babyweight.Training{
			Workers:          c.Training.Workers,
			ParameterServers: c.Training.ParameterServers,
			TimeoutMinutes:   c.Training.TimeoutMinutes,
		},
	}
}
