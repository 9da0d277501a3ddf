package cli

import (
	"errors"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aretw0/automata/pkg/adapters/redis"
)

// ErrParsingConfig is returned when environment variables cannot be decoded.
var ErrParsingConfig = errors.New("failed to parse configuration")

// Config holds the settings shared by the commands. Values come from the
// environment (and a .env file when present); flags override them.
type Config struct {
	Dir         string        `env:"AUTOMATA_DIR" envDefault:"."`
	LogLevel    string        `env:"AUTOMATA_LOG_LEVEL" envDefault:"info"`
	Debug       bool          `env:"AUTOMATA_DEBUG" envDefault:"false"`
	Port        int           `env:"AUTOMATA_PORT" envDefault:"8080"`
	SessionsDir string        `env:"AUTOMATA_SESSIONS_DIR"`
	Store       string        `env:"AUTOMATA_STORE" envDefault:"file"` // file | memory | redis
	LockTTL     time.Duration `env:"AUTOMATA_LOCK_TTL" envDefault:"30s"`
	HistorySize int           `env:"AUTOMATA_HISTORY_LIMIT" envDefault:"256"`
	MaxInput    int           `env:"AUTOMATA_MAX_INPUT_SIZE" envDefault:"4096"`

	// StoreKey enables AES-256 encryption of stored sessions (base64, 32 bytes).
	// Older keys stay readable through StoreFallbackKeys during a rotation.
	StoreKey          string   `env:"AUTOMATA_STORE_KEY"`
	StoreFallbackKeys []string `env:"AUTOMATA_STORE_FALLBACK_KEYS" envSeparator:","`

	Redis redis.Config
}

var dotenvLoaded sync.Once

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	dotenvLoaded.Do(func() {
		// Ignore errors - the .env file might not exist and that's ok
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
