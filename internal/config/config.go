package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	AutoMigrate   bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	DBMaxConns       int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns       int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`

	SecretKey         string        `env:"SECRET_KEY,required,notEmpty"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"10m"`
	TokenMaxTTL       time.Duration `env:"TOKEN_MAX_TTL" envDefault:"24h"`
	RegistrationDelay time.Duration `env:"REGISTRATION_DELAY" envDefault:"1s"`
	UserCacheTTL      time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`

	// Costo de argon2id; memoria en KiB.
	Argon2Time    uint32 `env:"ARGON2_TIME" envDefault:"1"`
	Argon2Memory  uint32 `env:"ARGON2_MEMORY_KB" envDefault:"65536"`
	Argon2Threads uint8  `env:"ARGON2_THREADS" envDefault:"4"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
