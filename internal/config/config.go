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
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Remote ML prediction API.
	MLAPIURL          string        `envconfig:"ML_API_URL" validate:"omitempty,url"`
	MLAPIEnabled      bool          `envconfig:"ML_API_ENABLED"`
	MLAPITimeout      time.Duration `envconfig:"ML_API_TIMEOUT" default:"4s" validate:"gt=0,lte=30s"`
	MLAPICacheSize    int           `envconfig:"ML_API_CACHE_SIZE" default:"500" validate:"gte=0"`
	MLBreakerFailures uint32        `envconfig:"ML_BREAKER_FAILURES" default:"5" validate:"gt=0"`
	MLBreakerCooldown time.Duration `envconfig:"ML_BREAKER_COOLDOWN" default:"30s" validate:"gt=0"`

	// Simulation sessions.
	SimulationDebounce     time.Duration `envconfig:"SIMULATION_DEBOUNCE" default:"400ms" validate:"gte=0"`
	SimulationDefaultYears int           `envconfig:"SIMULATION_DEFAULT_YEARS" default:"10" validate:"gte=1,lte=100"`
	SessionTTL             time.Duration `envconfig:"SESSION_TTL" default:"30m" validate:"gt=0"`

	// Snapshot publishing.
	KafkaEnabled        bool          `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers        []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic          string        `envconfig:"KAFKA_TOPIC" default:"climate-simulations"`
	KafkaPublishTimeout time.Duration `envconfig:"KAFKA_PUBLISH_TIMEOUT" default:"5s" validate:"gt=0"`

	RegionsFile string `envconfig:"REGIONS_FILE"`
}

// Load reads configuration from environment variables (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if _, set := os.LookupEnv("ML_API_ENABLED"); !set {
		cfg.MLAPIEnabled = cfg.MLAPIURL != ""
	}
	cfg.KafkaBrokers = trimBrokers(cfg.KafkaBrokers)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.MLAPIEnabled && cfg.MLAPIURL == "" {
		return nil, errors.New("ML_API_ENABLED is true but ML_API_URL is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return &cfg, nil
}

var validate = newValidator()

// newValidator reports field errors by their environment variable name.
func newValidator() func(*Config) error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("envconfig"); name != "" {
			return name
		}
		return f.Name
	})

	return func(cfg *Config) error {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("invalid %s: failed %q (value %v)", fe.Field(), fe.ActualTag(), fe.Value()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}

func trimBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
