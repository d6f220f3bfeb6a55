package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config/config.yaml"
	DefaultEnvFile    = ".env"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Model      ModelConfig      `yaml:"model"`
	Validation ValidationConfig `yaml:"validation"`
	Response   ResponseConfig   `yaml:"response"`
	Sentry     SentryConfig     `yaml:"sentry"`
}

type AppConfig struct {
	Name    string `yaml:"name" envconfig:"NAME" validate:"required"`
	Version string `yaml:"version" envconfig:"VERSION" validate:"required"`
	Env     string `yaml:"env" envconfig:"ENV" validate:"oneof=development test staging production"`
}

type ServerConfig struct {
	Port         string `yaml:"port" envconfig:"PORT" validate:"required,numeric"`
	ReadTimeout  int    `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gte=0"`
	WriteTimeout int    `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gte=0"`
	IdleTimeout  int    `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gte=0"`
	BodyLimit    int    `yaml:"body_limit" envconfig:"BODY_LIMIT" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// ModelConfig locates the trained artifacts. RegressorPath is optional; when
// set the deployment answers with precipitation estimates.
type ModelConfig struct {
	ClassifierPath string `yaml:"classifier_path" envconfig:"CLASSIFIER_PATH" validate:"required"`
	RegressorPath  string `yaml:"regressor_path" envconfig:"REGRESSOR_PATH"`
	Variant        string `yaml:"variant" envconfig:"VARIANT" validate:"omitempty,oneof=timestamp calendar"`
	MaxBatchSize   int    `yaml:"max_batch_size" envconfig:"MAX_BATCH_SIZE" validate:"gt=0"`
}

type ValidationConfig struct {
	StrictRanges bool `yaml:"strict_ranges" envconfig:"STRICT_RANGES"`
}

// ResponseConfig shapes successful prediction responses.
type ResponseConfig struct {
	// EchoInput repeats the accepted observation, under canonical field names.
	EchoInput bool `yaml:"echo_input" envconfig:"ECHO_INPUT"`
}

type SentryConfig struct {
	DSN   string `yaml:"dsn" envconfig:"DSN"`
	Debug bool   `yaml:"debug" envconfig:"DEBUG"`
}

// ConfigProvider loads and validates a Config.
type ConfigProvider interface {
	Load() (*Config, error)
	Validate(config *Config) error
}

// Default returns the configuration used when no file or environment overrides it.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    "rainfall-api",
			Version: "1.0.0",
			Env:     "development",
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  10,
			WriteTimeout: 10,
			IdleTimeout:  120,
			BodyLimit:    1024 * 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Model: ModelConfig{
			ClassifierPath: "models/rain_classifier_with_season.json",
			MaxBatchSize:   1000,
		},
		Validation: ValidationConfig{
			StrictRanges: true,
		},
	}
}

// FileConfigProvider layers defaults, a YAML file, a dotenv file and the
// process environment, in increasing priority.
type FileConfigProvider struct {
	path     string
	envFile  string
	validate *validator.Validate
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &FileConfigProvider{
		path:     path,
		envFile:  DefaultEnvFile,
		validate: v,
	}
}

// WithEnvFile overrides the dotenv file location.
func (p *FileConfigProvider) WithEnvFile(path string) *FileConfigProvider {
	p.envFile = path
	return p
}

func (p *FileConfigProvider) Load() (*Config, error) {
	cnf := Default()

	if err := p.loadFromFile(cnf); err != nil {
		return nil, err
	}

	if p.envFile != "" {
		if err := godotenv.Load(p.envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading env file %s: %w", p.envFile, err)
		}
	}

	if err := envconfig.Process("", cnf); err != nil {
		return nil, fmt.Errorf("error environment variable parsing: %w", err)
	}

	return cnf, nil
}

func (p *FileConfigProvider) loadFromFile(cnf *Config) error {
	yamlData, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", p.path, err)
	}

	if err := yaml.Unmarshal(yamlData, cnf); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func (p *FileConfigProvider) Validate(cnf *Config) error {
	err := p.validate.Struct(cnf)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// NewConfig loads the configuration from DefaultConfigPath and the environment.
func NewConfig() (*Config, error) {
	return NewConfigWithProvider(NewFileConfigProvider(DefaultConfigPath))
}

func NewConfigWithProvider(provider ConfigProvider) (*Config, error) {
	cnf, err := provider.Load()
	if err != nil {
		return nil, err
	}
	if err := provider.Validate(cnf); err != nil {
		return nil, err
	}
	return cnf, nil
}

func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// fieldPath turns "Config.app.name" into "app.name".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
