// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ZSC714725/soxmanager/internal/cache"
	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/storage"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server ServerConfig   `yaml:"server"`
	Sox    SoxConfig      `yaml:"sox"`
	Log    logger.Config  `yaml:"log"`
	Redis  cache.Config   `yaml:"redis"`
	Minio  storage.Config `yaml:"minio"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// SoxConfig SoX 配置
type SoxConfig struct {
	Path string `yaml:"path"`

	// Dir 为空时使用 sox 所在目录
	Dir           string        `yaml:"dir"`
	Buffer        uint32        `yaml:"buffer"`
	Multithreaded *bool         `yaml:"multithreaded"`
	LogLines      int           `yaml:"log_lines"`
	InfoTimeout   time.Duration `yaml:"info_timeout"`
	Sampling      bool          `yaml:"sampling"`
	Input         PathRules     `yaml:"input"`
	Output        PathRules     `yaml:"output"`
}

// PathRules 路径白名单/黑名单（正则）
type PathRules struct {
	Allow []string `yaml:"allow"`
	Block []string `yaml:"block"`
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// MinioEnabled reports whether object storage is configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.Bucket != ""
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: ":8080"},
		Sox: SoxConfig{
			Path:        "sox",
			LogLines:    100,
			InfoTimeout: 10 * time.Second,
			Sampling:    true,
		},
		Log: logger.Config{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load 从 YAML 文件加载配置，然后应用环境变量覆盖。path 为空或文件不存在时
// 使用默认配置。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// .env 不覆盖已存在的环境变量
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// 填充空值
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = ":8080"
	}
	if cfg.Sox.Path == "" {
		cfg.Sox.Path = "sox"
	}
	if cfg.Sox.LogLines <= 0 {
		cfg.Sox.LogLines = 100
	}
	if cfg.Sox.InfoTimeout <= 0 {
		cfg.Sox.InfoTimeout = 10 * time.Second
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Sox.Path, "SOX_PATH")
	setString(&c.Server.Bind, "SOXMANAGER_BIND")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if err := setInt(&c.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}

	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	return setBool(&c.Minio.UseSSL, "MINIO_USE_SSL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
