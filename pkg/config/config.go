package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver        string `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite
	PostgresConnStr string `env:"POSTGRES_CONN_STR"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"socialpulse.db"`
	MongoURI        string `env:"MONGO_URI,required,notEmpty"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"socialmedia"`

	AuthProvider            string   `env:"AUTH_PROVIDER" envDefault:"jwt"` // jwt | firebase
	JWTSecret               string   `env:"JWT_SECRET" envDefault:"supersecretjwtkey"`
	FirebaseCredentialsPath string   `env:"FIREBASE_CREDENTIALS_PATH"`
	AllowedOrigins          []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	DispatchWorkers   int           `env:"DISPATCH_WORKERS" envDefault:"4"`
	DispatchQueueSize int           `env:"DISPATCH_QUEUE_SIZE" envDefault:"256"`
	SessionBufferSize int           `env:"SESSION_BUFFER_SIZE" envDefault:"64"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads an optional .env file, then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.PostgresConnStr == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.AuthProvider {
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET must not be empty")
		}
	case "firebase":
		if c.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required with AUTH_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("unsupported AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.DispatchWorkers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.DispatchWorkers)
	}
	if c.DispatchQueueSize < 1 || c.SessionBufferSize < 1 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE and SESSION_BUFFER_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
