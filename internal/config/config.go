package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	PharmaIDBaseURL        string `env:"PHARMAID_BASE_URL,required,notEmpty"`
	PharmaIDEmail          string `env:"PHARMAID_EMAIL,required,notEmpty"`
	PharmaIDPassword       string `env:"PHARMAID_PASSWORD,required,notEmpty"`
	PharmaIDClientID       string `env:"PHARMAID_CLIENT_ID,required,notEmpty"`
	PharmaIDTimeoutSeconds int    `env:"PHARMAID_TIMEOUT_SECONDS" envDefault:"30"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LoginRateLimit         int `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	LoginRateWindowMinutes int `env:"LOGIN_RATE_WINDOW_MINUTES" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
