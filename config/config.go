package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Transfer  TransferConfig  `yaml:"transfer"`
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	TempSizeExpire  int    `yaml:"temp_size_expire"`
	SpaceInfoExpire int    `yaml:"space_info_expire"`
}

type StorageConfig struct {
	BasePath         string `yaml:"base_path"`
	MaxFileSize      int64  `yaml:"max_file_size"`
	DefaultUserQuota int64  `yaml:"default_user_quota"`
}

type TransferConfig struct {
	WorkerCount    int `yaml:"worker_count"`
	PollInterval   int `yaml:"poll_interval"`
	ToolTimeout    int `yaml:"tool_timeout"`
	SegmentSeconds int `yaml:"segment_seconds"`
}

type ThumbnailConfig struct {
	Width int `yaml:"width"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.DefaultUserQuota == 0 {
		cfg.Storage.DefaultUserQuota = 10 * 1024 * 1024 * 1024
	}
	if cfg.Redis.TempSizeExpire == 0 {
		cfg.Redis.TempSizeExpire = 3600
	}
	if cfg.Redis.SpaceInfoExpire == 0 {
		cfg.Redis.SpaceInfoExpire = 86400
	}
	if cfg.Transfer.WorkerCount == 0 {
		cfg.Transfer.WorkerCount = 2
	}
	if cfg.Transfer.PollInterval == 0 {
		cfg.Transfer.PollInterval = 5
	}
	if cfg.Transfer.ToolTimeout == 0 {
		cfg.Transfer.ToolTimeout = 1800
	}
	if cfg.Transfer.SegmentSeconds == 0 {
		cfg.Transfer.SegmentSeconds = 30
	}
	if cfg.Thumbnail.Width == 0 {
		cfg.Thumbnail.Width = 150
	}
}
