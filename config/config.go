package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const EnvConfigFile = "GAMERSCRAWL_CONFIG"

type Config struct {
	DataRoot    string            `yaml:"data_root"`
	DocsDir     string            `yaml:"docs_dir"`
	SiteURL     string            `yaml:"site_url"`
	ChromePath  string            `yaml:"chrome_path"`
	HTTP        HTTPConfig        `yaml:"http"`
	Keys        KeysConfig        `yaml:"keys"`
	AI          AIConfig          `yaml:"ai"`
	Analytics   AnalyticsConfig   `yaml:"analytics"`
	Mongo       MongoConfig       `yaml:"mongo"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

type HTTPConfig struct {
	Timeout    int `yaml:"timeout"`
	MaxRetries int `yaml:"max_retries"`
	RetryDelay int `yaml:"retry_delay"`
}

type KeysConfig struct {
	YouTube   string `yaml:"youtube"`
	Firecrawl string `yaml:"firecrawl"`
	RAWG      string `yaml:"rawg"`
}

type AIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AnalyticsConfig struct {
	PropertyID      string `yaml:"property_id"`
	ServiceAccount  string `yaml:"service_account"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MongoConfig struct {
	URI    string `yaml:"uri"`
	DBName string `yaml:"db_name"`
}

type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when neither a file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		DataRoot: ".",
		DocsDir:  "docs",
		SiteURL:  "https://gamerscrawl.com",
		HTTP: HTTPConfig{
			Timeout:    15,
			MaxRetries: 2,
			RetryDelay: 1,
		},
		AI: AIConfig{
			Model: "gemini-2.5-pro",
		},
		Mongo: MongoConfig{
			DBName: "gamerscrawl",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (including .env). Environment values win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Load .env but don't fail if it doesn't exist
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to load .env: %v", err)
	}

	applyEnv(cfg)

	if cfg.DataRoot == "" {
		cfg.DataRoot = "."
	}
	if cfg.DocsDir == "" {
		cfg.DocsDir = "docs"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.DataRoot, "DATA_ROOT")
	setString(&cfg.DocsDir, "DOCS_DIR")
	setString(&cfg.SiteURL, "SITE_URL")
	setString(&cfg.ChromePath, "CHROME_PATH")

	setInt(&cfg.HTTP.Timeout, "HTTP_TIMEOUT")
	setInt(&cfg.HTTP.MaxRetries, "MAX_RETRIES")
	setInt(&cfg.HTTP.RetryDelay, "RETRY_DELAY")

	setString(&cfg.Keys.YouTube, "YOUTUBE_API_KEY")
	setString(&cfg.Keys.Firecrawl, "FIRECRAWL_API_KEY")
	setString(&cfg.Keys.RAWG, "RAWG_API_KEY")

	setString(&cfg.AI.APIKey, "GEMINI_API_KEY")
	setString(&cfg.AI.Model, "GEMINI_MODEL")

	setString(&cfg.Analytics.PropertyID, "GA4_PROPERTY_ID")
	setString(&cfg.Analytics.ServiceAccount, "GA4_SERVICE_ACCOUNT")
	setString(&cfg.Analytics.CredentialsFile, "GA4_CREDENTIALS_FILE")

	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.DBName, "DB_NAME")

	setString(&cfg.ObjectStore.Endpoint, "S3_ENDPOINT")
	setString(&cfg.ObjectStore.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.ObjectStore.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.ObjectStore.Bucket, "S3_BUCKET")
	setString(&cfg.ObjectStore.Prefix, "S3_PREFIX")
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ObjectStore.UseSSL = b
		}
	}

	setString(&cfg.Server.Port, "API_PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.File, "LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}
