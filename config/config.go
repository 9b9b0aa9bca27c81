package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendFS    = "fs"
	BackendMinio = "minio"
)

type Config struct {
	Server   Server   `mapstructure:"server"`
	Paths    Paths    `mapstructure:"paths"`
	Images   Images   `mapstructure:"images"`
	Storage  Storage  `mapstructure:"storage"`
	Postgres Postgres `mapstructure:"postgres"`
	RabbitMQ RabbitMQ `mapstructure:"rabbitmq"`
	Minio    Minio    `mapstructure:"minio"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

// Paths are the roots the three image routes search under.
type Paths struct {
	General   string `mapstructure:"general"`
	Ratings   string `mapstructure:"ratings"`
	MediaInfo string `mapstructure:"mediainfo"`
}

type Images struct {
	// Extensions are tried in order; earlier entries win.
	Extensions  []string `mapstructure:"extensions"`
	CacheMaxAge int      `mapstructure:"cache_max_age"`
}

type Storage struct {
	Backend string `mapstructure:"backend"`
}

type Postgres struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database"`
	AutoCreate bool   `mapstructure:"autocreate"`
}

type RabbitMQ struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Queue    string `mapstructure:"queue"` //missing image notifications
}

type Minio struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8096")
	v.SetDefault("paths.general", "")
	v.SetDefault("paths.ratings", "")
	v.SetDefault("paths.mediainfo", "")
	v.SetDefault("images.extensions", []string{".png", ".jpg", ".jpeg", ".tbn"})
	v.SetDefault("images.cache_max_age", 86400)
	v.SetDefault("storage.backend", BackendFS)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.username", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "")
	v.SetDefault("postgres.autocreate", true)

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.username", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.queue", "missing_images")

	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.secure", true)
}

// InitConfig reads the yaml file at filename. A .env file next to the
// working directory is loaded first when present, and IMAGES_* environment
// variables override file values (IMAGES_PATHS_GENERAL, IMAGES_SERVER_PORT...).
func InitConfig(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("IMAGES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Paths.General == "" {
		return errors.New("paths.general is required")
	}
	if c.Paths.Ratings == "" {
		return errors.New("paths.ratings is required")
	}
	if c.Paths.MediaInfo == "" {
		return errors.New("paths.mediainfo is required")
	}
	if len(c.Images.Extensions) == 0 {
		return errors.New("images.extensions must not be empty")
	}
	for _, ext := range c.Images.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("invalid image extension %q", ext)
		}
	}
	switch c.Storage.Backend {
	case BackendFS:
	case BackendMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return errors.New("minio.endpoint and minio.bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.Username, p.Password, p.Database)
}

func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}
