package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig 是 CONFIG_FILE 指向的 YAML 文件结构，未出现的字段保持默认值
type fileConfig struct {
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`
	Debug       *bool  `yaml:"debug"`

	Database struct {
		UseLocal      *bool  `yaml:"use_local"`
		LocalDataDir  string `yaml:"local_data_dir"`
		PostgresDSN   string `yaml:"postgres_dsn"`
		MongoURI      string `yaml:"mongodb_uri"`
		MongoDatabase string `yaml:"mongodb_database"`
		AutoMigrate   *bool  `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWTSecret string `yaml:"jwt_secret"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
	} `yaml:"redis"`

	Uploads struct {
		SupabaseURL    string `yaml:"supabase_url"`
		SupabaseKey    string `yaml:"supabase_service_key"`
		SupabaseBucket string `yaml:"supabase_bucket"`
		Dir            string `yaml:"dir"`
		PublicBaseURL  string `yaml:"public_base_url"`
		MaxBytes       int64  `yaml:"max_bytes"`
		PictureMaxSize int    `yaml:"picture_max_size"`
	} `yaml:"uploads"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

// applyYAMLFile 读取 YAML 配置并覆盖 cfg 中对应的非空字段
func applyYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return applyYAML(cfg, data)
}

func applyYAML(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.Environment, fc.Environment)
	setString(&cfg.Port, fc.Port)
	if fc.Debug != nil {
		cfg.Debug = *fc.Debug
	}

	if fc.Database.UseLocal != nil {
		cfg.UseLocalDB = *fc.Database.UseLocal
	}
	setString(&cfg.LocalDataDir, fc.Database.LocalDataDir)
	setString(&cfg.PostgresDSN, fc.Database.PostgresDSN)
	setString(&cfg.MongoURI, fc.Database.MongoURI)
	setString(&cfg.MongoDatabase, fc.Database.MongoDatabase)
	if fc.Database.AutoMigrate != nil {
		cfg.AutoMigrate = *fc.Database.AutoMigrate
	}

	setString(&cfg.JWTSecret, fc.JWTSecret)

	setString(&cfg.RedisAddr, fc.Redis.Addr)
	setString(&cfg.RedisPassword, fc.Redis.Password)
	if fc.Redis.DB != nil {
		cfg.RedisDB = *fc.Redis.DB
	}

	setString(&cfg.SupabaseURL, fc.Uploads.SupabaseURL)
	setString(&cfg.SupabaseKey, fc.Uploads.SupabaseKey)
	setString(&cfg.SupabaseBucket, fc.Uploads.SupabaseBucket)
	setString(&cfg.UploadDir, fc.Uploads.Dir)
	setString(&cfg.PublicBaseURL, fc.Uploads.PublicBaseURL)
	if fc.Uploads.MaxBytes > 0 {
		cfg.MaxUploadBytes = fc.Uploads.MaxBytes
	}
	if fc.Uploads.PictureMaxSize > 0 {
		cfg.PictureMaxSize = fc.Uploads.PictureMaxSize
	}

	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.AllowedOrigins
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
