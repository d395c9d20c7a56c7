package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSalt            = "gamesalt2024"
	DefaultLeaderboardSize = 50
	DefaultPointsPerAnswer = 10
)

type Config struct {
	Data struct {
		Dir       string `yaml:"dir"`
		BackupDir string `yaml:"backupDir"`
	} `yaml:"data"`
	Auth struct {
		Salt string `yaml:"salt"`
	} `yaml:"auth"`
	Scoring struct {
		LeaderboardSize int `yaml:"leaderboardSize"`
		PointsPerAnswer int `yaml:"pointsPerAnswer"`
	} `yaml:"scoring"`
	Catalog struct {
		Source string `yaml:"source"` // files | postgres
		Cache  string `yaml:"cache"`  // memory | redis | none
		TTL    string `yaml:"ttl"`
	} `yaml:"catalog"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies .env and QUIZ_* environment overrides.
// A missing file is not an error; defaults are used instead.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, err
	}

	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Data.Dir, "QUIZ_DATA_DIR")
	setString(&cfg.Data.BackupDir, "QUIZ_BACKUP_DIR")
	setString(&cfg.Auth.Salt, "QUIZ_PASSWORD_SALT")
	setString(&cfg.Catalog.Source, "QUIZ_CATALOG_SOURCE")
	setString(&cfg.Catalog.Cache, "QUIZ_CATALOG_CACHE")
	setString(&cfg.Redis.Addr, "QUIZ_REDIS_ADDR")
	setString(&cfg.Redis.Password, "QUIZ_REDIS_PASSWORD")
	setString(&cfg.Postgres.URL, "QUIZ_POSTGRES_URL")
	setString(&cfg.Log.Mode, "QUIZ_LOG_MODE")
	if v := os.Getenv("QUIZ_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Data.BackupDir == "" {
		cfg.Data.BackupDir = "backups"
	}
	if cfg.Auth.Salt == "" {
		cfg.Auth.Salt = DefaultSalt
	}
	if cfg.Scoring.LeaderboardSize <= 0 {
		cfg.Scoring.LeaderboardSize = DefaultLeaderboardSize
	}
	if cfg.Scoring.PointsPerAnswer <= 0 {
		cfg.Scoring.PointsPerAnswer = DefaultPointsPerAnswer
	}
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "files"
	}
	if cfg.Catalog.Cache == "" {
		cfg.Catalog.Cache = "memory"
	}
	if cfg.Log.Mode == "" {
		cfg.Log.Mode = "dev"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
