package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeDev      = "dev"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	AppEnv                 string `env:"APP_ENV" envDefault:"production"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	AuthMode          string `env:"AUTH_MODE" envDefault:"firebase"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`

	BidIncrement        int64         `env:"BID_INCREMENT" envDefault:"5"`
	EndingSoonWindow    time.Duration `env:"ENDING_SOON_WINDOW" envDefault:"24h"`
	PollInterval        time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	RateLimitRPS        float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	AllowedOriginSuffix string        `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"vercel.app"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}
