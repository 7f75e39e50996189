package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all relay configuration. It is built once at startup.
type Config struct {
	TelegramToken        string `mapstructure:"telegram_token" validate:"required"`
	TelegramChatID       string `mapstructure:"telegram_chat_id" validate:"required"`
	TelegramAPIEndpoint  string `mapstructure:"telegram_api_endpoint"`
	TelegramFileEndpoint string `mapstructure:"telegram_file_endpoint"`

	HTTPAddress   string `mapstructure:"http_address" validate:"required"`
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
	TrustProxy    bool   `mapstructure:"trust_proxy"`

	MaxFileSize       int64 `mapstructure:"max_file_size" validate:"gt=0"`
	MaxBodySize       int64 `mapstructure:"max_body_size" validate:"gtefield=MaxFileSize"`
	UploadConcurrency int   `mapstructure:"upload_concurrency" validate:"gte=0"`

	RateLimitMax    int           `mapstructure:"rate_limit_max" validate:"gte=0"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window" validate:"gt=0"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
}

const (
	DefaultHTTPAddress     = ":3000"
	DefaultMaxFileSize     = 50 << 20
	DefaultMaxBodySize     = 200 << 20
	DefaultRateLimitMax    = 50
	DefaultRateLimitWindow = time.Minute
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"telegram_token":         "TELEGRAM_TOKEN",
	"telegram_chat_id":       "TELEGRAM_CHAT_ID",
	"telegram_api_endpoint":  "TELEGRAM_API_ENDPOINT",
	"telegram_file_endpoint": "TELEGRAM_FILE_ENDPOINT",
	"http_address":           "HTTP_ADDRESS",
	"public_base_url":        "PUBLIC_BASE_URL",
	"trust_proxy":            "TRUST_PROXY",
	"max_file_size":          "MAX_FILE_SIZE",
	"max_body_size":          "MAX_BODY_SIZE",
	"upload_concurrency":     "UPLOAD_CONCURRENCY",
	"rate_limit_max":         "RATE_LIMIT_MAX",
	"rate_limit_window":      "RATE_LIMIT_WINDOW",
	"log_level":              "LOG_LEVEL",
}

// Load reads .env, the environment and an optional filerelay.yaml.
// An explicit configFile must exist; the default search is best effort.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	for key, envVar := range envBindings {
		if err := v.BindEnv(key, envVar); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", envVar, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("filerelay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.filerelay")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.PublicBaseURL = strings.TrimRight(config.PublicBaseURL, "/")

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	log.Debug().
		Str("http_address", config.HTTPAddress).
		Str("chat_id", config.TelegramChatID).
		Int64("max_file_size", config.MaxFileSize).
		Msg("Config loaded")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_address", DefaultHTTPAddress)
	v.SetDefault("trust_proxy", true)
	v.SetDefault("max_file_size", DefaultMaxFileSize)
	v.SetDefault("max_body_size", DefaultMaxBodySize)
	v.SetDefault("upload_concurrency", 0)
	v.SetDefault("rate_limit_max", DefaultRateLimitMax)
	v.SetDefault("rate_limit_window", DefaultRateLimitWindow)
	v.SetDefault("log_level", "info")
}

// validateConfig reports every missing variable at once, then any invalid one.
func validateConfig(config *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		key := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if envVar, ok := envBindings[key]; ok {
			return envVar
		}
		return field.Name
	})

	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	var missingVars, invalidVars []string
	for _, fieldErr := range validationErrors {
		if fieldErr.Tag() == "required" {
			missingVars = append(missingVars, fieldErr.Field())
			continue
		}

		invalidVars = append(invalidVars, fmt.Sprintf("%s (%s)", fieldErr.Field(), describeRule(fieldErr)))
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(invalidVars, ", "))
}

func describeRule(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "gtefield":
		return "must not be smaller than MAX_FILE_SIZE"
	case "oneof":
		return "must be one of " + fieldErr.Param()
	case "url":
		return "must be an absolute URL"
	default:
		return fmt.Sprintf("failed %s=%s", fieldErr.Tag(), fieldErr.Param())
	}
}
