package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr      string `envconfig:"ADDR" default:":8080"`
	DBDSN     string `envconfig:"DB_DSN" required:"true"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Empty REDIS_ADDR runs the hub in single-instance mode (no bridge).
	RedisAddr string `envconfig:"REDIS_ADDR"`

	// Seed credentials for the single support agent. Applied only when the
	// agents table is empty.
	AgentName     string `envconfig:"AGENT_NAME" default:"Support Agent"`
	AgentEmail    string `envconfig:"AGENT_EMAIL"`
	AgentPassword string `envconfig:"AGENT_PASSWORD"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the environment, picking up a local .env file if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
