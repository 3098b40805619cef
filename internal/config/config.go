package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/path/to/socket)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisTimeout time.Duration `env:"REDIS_TIMEOUT" envDefault:"2s"`

	// Daily quotas for gated accrual types.
	VoteDailyLimit   int `env:"VOTE_DAILY_LIMIT" envDefault:"20"`
	CreateDailyLimit int `env:"CREATE_DAILY_LIMIT" envDefault:"5"`

	// Event dispatcher worker pool.
	DispatchWorkers   int `env:"DISPATCH_WORKERS" envDefault:"5"`
	DispatchQueueSize int `env:"DISPATCH_QUEUE_SIZE" envDefault:"100"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
