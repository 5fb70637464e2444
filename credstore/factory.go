package credstore

import "fmt"

// Driver identifiers for the durable tier.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config describes the durable tier selection parameters. The session tier
// is always in-memory.
type Config struct {
	// Driver selects the durable backend: memory (default), file, redis.
	Driver string

	File  *FileConfig
	Redis *RedisConfig
}

// FileConfig holds TOML file backend options.
type FileConfig struct {
	// Path to the credentials file. Defaults to
	// ~/.config/lumina-metro/credentials.toml. A leading "~" is expanded.
	Path string
}

// RedisConfig captures connection options for a shared durable tier
// (kiosk fleets, headless agents).
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

func newDurable(cfg Config) (Backend, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		var fc FileConfig
		if cfg.File != nil {
			fc = *cfg.File
		}
		return NewFile(fc)
	case DriverRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("credstore: redis driver requires configuration")
		}
		return NewRedis(*cfg.Redis)
	default:
		return nil, fmt.Errorf("credstore: unsupported durable driver: %s", driver)
	}
}
