package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config 应用配置结构
type Config struct {
	// 环境配置
	Environment string
	Port        string

	// 数据库配置（优先级：PostgreSQL > MongoDB > 本地文件）
	UseLocalDB    bool
	LocalDataDir  string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
	AutoMigrate   bool

	// JWT配置（只校验，不签发）
	JWTSecret string

	// Redis配置（用于跨实例的组长分配锁，可选）
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// 上传配置：配置了 Supabase 时使用 Supabase Storage，否则写本地目录
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
	UploadDir      string
	PublicBaseURL  string
	MaxUploadBytes int64
	PictureMaxSize int

	// CORS配置
	AllowedOrigins []string

	// 调试配置
	Debug bool
}

// LoadConfig 加载配置（支持本地和Vercel环境）
func LoadConfig() *Config {
	// 根据环境加载对应的 .env 文件
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development" // 默认开发环境
	}

	switch env {
	case "production":
		loadEnvFile(".env.production")
	default:
		loadEnvFile(".env.local")
	}

	config := defaults()

	// YAML 覆盖默认值，环境变量再覆盖 YAML
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyYAMLFile(config, path); err != nil {
			fmt.Printf("⚠️  WARNING: failed to load config file %s: %v\n", path, err)
		}
	}

	config.Environment = getEnvWithDefault("ENVIRONMENT", config.Environment)
	config.Port = getEnvWithDefault("PORT", config.Port)
	config.UseLocalDB = getEnvBool("USE_LOCAL_DB", config.UseLocalDB)
	config.LocalDataDir = getEnvWithDefault("LOCAL_DATA_DIR", config.LocalDataDir)
	config.JWTSecret = getEnvWithDefault("JWT_SECRET", config.JWTSecret)
	config.Debug = getEnvBool("DEBUG", config.Debug)
	config.AutoMigrate = getEnvBool("AUTO_MIGRATE", config.AutoMigrate)

	// 数据库配置
	// Trim whitespace to avoid trailing spaces/newlines from env sources
	config.PostgresDSN = strings.TrimSpace(getEnvWithDefault("POSTGRES_DSN", config.PostgresDSN))
	config.MongoURI = strings.TrimSpace(getEnvWithDefault("MONGODB_URI", config.MongoURI))
	config.MongoDatabase = strings.TrimSpace(getEnvWithDefault("MONGODB_DATABASE", config.MongoDatabase))

	config.RedisAddr = strings.TrimSpace(getEnvWithDefault("REDIS_ADDR", config.RedisAddr))
	config.RedisPassword = getEnvWithDefault("REDIS_PASSWORD", config.RedisPassword)
	config.RedisDB = getEnvInt("REDIS_DB", config.RedisDB)

	config.SupabaseURL = strings.TrimSpace(getEnvWithDefault("SUPABASE_URL", config.SupabaseURL))
	config.SupabaseKey = strings.TrimSpace(getEnvWithDefault("SUPABASE_SERVICE_KEY", config.SupabaseKey))
	config.SupabaseBucket = strings.TrimSpace(getEnvWithDefault("SUPABASE_BUCKET", config.SupabaseBucket))
	config.UploadDir = getEnvWithDefault("UPLOAD_DIR", config.UploadDir)
	config.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(getEnvWithDefault("PUBLIC_BASE_URL", config.PublicBaseURL)), "/")
	config.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(config.MaxUploadBytes)))
	config.PictureMaxSize = getEnvInt("PICTURE_MAX_SIZE", config.PictureMaxSize)

	// CORS配置
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = splitOrigins(origins)
	}

	// 外部数据库已配置时不再使用本地文件数据库
	if config.PostgresDSN != "" || config.MongoURI != "" {
		config.UseLocalDB = false
	}

	if config.Environment == "production" {
		if config.UseLocalDB {
			fmt.Println("⚠️  WARNING: Production environment using local file database. Please configure POSTGRES_DSN or MONGODB_URI")
		}
		// 生产环境关闭调试
		config.Debug = false
	}

	return config
}

func defaults() *Config {
	return &Config{
		Environment:    "development",
		Port:           "3000",
		UseLocalDB:     true,
		LocalDataDir:   "./data",
		MongoDatabase:  "orgchart",
		AutoMigrate:    true,
		JWTSecret:      defaultJWTSecret,
		SupabaseBucket: "pictures",
		UploadDir:      "./uploads",
		MaxUploadBytes: 5 << 20,
		PictureMaxSize: 512,
		AllowedOrigins: []string{"*"},
	}
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
// On serverless (Vercel), it initializes once per cold start and
// reuses it across warm invocations, avoiding per-request parsing.
func GetCached() *Config {
	configOnce.Do(func() {
		cachedConfig = LoadConfig()
	})
	return cachedConfig
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	if !c.UseLocalDB && c.PostgresDSN == "" && c.MongoURI == "" {
		return fmt.Errorf("数据库配置不完整：请配置 POSTGRES_DSN、MONGODB_URI 或启用 USE_LOCAL_DB")
	}
	if c.MongoURI != "" && c.MongoDatabase == "" {
		return fmt.Errorf("MONGODB_DATABASE is required when MONGODB_URI is set")
	}

	if (c.SupabaseURL == "") != (c.SupabaseKey == "") {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set together")
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.PictureMaxSize <= 0 {
		return fmt.Errorf("PICTURE_MAX_SIZE must be positive")
	}

	return nil
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UseSupabaseStorage reports whether uploads go to Supabase Storage.
func (c *Config) UseSupabaseStorage() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

// 辅助函数

// getEnvWithDefault 获取环境变量，如果不存在则使用默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔类型的环境变量
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt 获取整数类型的环境变量
func getEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// loadEnvFile 加载 .env 文件到环境变量
func loadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		return // 文件不存在或无法打开，静默返回
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// 移除值两端的引号（如果有）
		if len(value) >= 2 {
			if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
				value = value[1 : len(value)-1]
			}
		}

		// 只有当环境变量不存在时才设置
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
