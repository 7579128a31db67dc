package main

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            int    `env:"PORT" envDefault:"3000"`
	DBURL           string `env:"DB_URL" envDefault:"memory://"`
	MattermostURL   string `env:"MM_URL" envDefault:"http://mattermost:8065"`
	MattermostToken string `env:"MM_TOKEN"`
	TeamName        string `env:"MM_TEAM" envDefault:"vk"`
	JwtSecret       string `env:"JWT_SECRET" envDefault:"secret"`
	PollIntervalSec int    `env:"POLL_INTERVAL_SEC" envDefault:"1"`
	BackoffSec      int    `env:"BACKOFF_SEC" envDefault:"5"`
}

func NewConfig() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Println("[Env]: unable to load .env file:", loadErr)
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		log.Println("[Env]: failed to parse environment variables:", parseErr)
	}

	return &cfg
}
