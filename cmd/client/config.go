package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL      string        `envconfig:"CHAT_SERVER_URL" default:"http://localhost:8080/api"`
	Email          string        `envconfig:"CHAT_EMAIL" default:"you@example.com"`
	Password       string        `envconfig:"CHAT_PASSWORD" default:"password"`
	PollInterval   time.Duration `envconfig:"POLL_INTERVAL" default:"3s"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"5s"`
	// LoginRetry bounds how long the client waits for the server at startup.
	LoginRetry time.Duration `envconfig:"LOGIN_RETRY" default:"30s"`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"WARN"`
	// COLOURS enables colorized terminal output
	Colours bool `envconfig:"COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
