package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	QueryURL       string        `envconfig:"SPARQL_QUERY_URL" default:"http://localhost:3030/grid/query"`
	UpdateURL      string        `envconfig:"SPARQL_UPDATE_URL" default:"http://localhost:3030/grid/update"`
	CommitTimeout  time.Duration `envconfig:"COMMIT_TIMEOUT" default:"10s"`
	GridSize       float64       `envconfig:"GRID_SIZE" default:"5"`
	HitThreshold   float64       `envconfig:"HIT_THRESHOLD" default:"10"`
	DragThreshold  float64       `envconfig:"DRAG_THRESHOLD" default:"0.5"`
	HoverDebounce  time.Duration `envconfig:"HOVER_DEBOUNCE" default:"150ms"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
