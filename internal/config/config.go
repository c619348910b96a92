package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	WSServer   WSServer `yaml:"ws_server"`
	Storage    Storage  `yaml:"storage"`
	Crash      Crash    `yaml:"crash"`
	Pusher     Pusher   `yaml:"pusher"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type WSServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Storage struct {
	DSN string `yaml:"dsn" env:"STORAGE_DSN" env-default:"root:123@tcp(localhost:3309)/api?charset=utf8mb4,utf8&parseTime=True&loc=Local"`
}

// Crash holds the round engine tunables. Durations are wall-clock; amounts
// are in cents.
type Crash struct {
	BettingDuration   time.Duration `yaml:"betting_duration" env-default:"10s"`
	TickInterval      time.Duration `yaml:"tick_interval" env-default:"100ms"`
	MinFlightDuration time.Duration `yaml:"min_flight_duration" env-default:"2s"`
	MaxFlightDuration time.Duration `yaml:"max_flight_duration" env-default:"30s"`
	Cooldown          time.Duration `yaml:"cooldown" env-default:"3s"`
	HouseEdge         float64       `yaml:"house_edge" env-default:"0.04"`
	MinBet            int64         `yaml:"min_bet" env-default:"100"`
	MaxBet            int64         `yaml:"max_bet" env-default:"100000"`
}

type Pusher struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	AppID   string `yaml:"app_id" env:"PUSHER_APP_ID"`
	Key     string `yaml:"key" env:"PUSHER_KEY"`
	Secret  string `yaml:"secret" env:"PUSHER_SECRET"`
	Cluster string `yaml:"cluster" env-default:"eu"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
