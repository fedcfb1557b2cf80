// Package config loads the application configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the explicit configuration handed to the gateway, use case and session.
type Config struct {
	// GitHub
	Token             string        `envconfig:"GITHUB_TOKEN" validate:"required"`
	DefaultUsername   string        `envconfig:"GITHUB_USERNAME"`
	APIURL            string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com/" validate:"required,url"`
	GraphQLURL        string        `envconfig:"GITHUB_GRAPHQL_URL" validate:"omitempty,url"`
	HTTPTimeout       time.Duration `envconfig:"GITHUB_HTTP_TIMEOUT" default:"30s" validate:"gt=0"`
	RequestsPerMinute int           `envconfig:"GITHUB_REQUESTS_PER_MINUTE" default:"0" validate:"gte=0"`

	// Dashboard
	FileFetchConcurrency int    `envconfig:"PR_FILE_FETCH_CONCURRENCY" default:"8" validate:"gt=0,lte=100"`
	ListenAddr           string `envconfig:"DASHBOARD_ADDR" default:"127.0.0.1:8080" validate:"required,hostname_port"`
}

// Load reads the given .env files (".env" when none are given), then the
// process environment, and validates the result. Variables already set in
// the environment win over .env files.
func Load(logger *log.Logger, envFiles ...string) (Config, error) {
	var cfg Config

	loadDotEnv(logger, envFiles)
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("env load: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	logger.Printf("config loaded apiURL=%s timeout=%s concurrency=%d defaultUsername_set=%t",
		cfg.APIURL, cfg.HTTPTimeout, cfg.FileFetchConcurrency, cfg.DefaultUsername != "")
	return cfg, nil
}

// Validate checks cfg against its validate tags. Callers that override a
// loaded field run it again.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

func loadDotEnv(logger *log.Logger, files []string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logger.Printf("dotenv: failed loading %s: %v", f, err)
		}
	}
}
