package appconfig

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type AppConfig struct {
	// Belief filter size per game.
	Particles int `env:"HEARTS_PARTICLES" env-default:"2000"`

	// Planner budget and tuning.
	Simulations int           `env:"HEARTS_SIMULATIONS" env-default:"4096"`
	PlanTime    time.Duration `env:"HEARTS_PLAN_TIME" env-default:"5s"`
	Exploration float64       `env:"HEARTS_EXPLORATION" env-default:"40"`
	Discount    float64       `env:"HEARTS_DISCOUNT" env-default:"1"`
	Workers     int           `env:"HEARTS_WORKERS" env-default:"1"`

	// Simulation driver.
	Games int   `env:"HEARTS_GAMES" env-default:"1"`
	Seed  int64 `env:"HEARTS_SEED" env-default:"0"`

	LogLevel string `env:"HEARTS_LOG_LEVEL" env-default:"info"`
}

// Load environment variables to AppConfig instance
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
