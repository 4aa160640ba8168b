package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	MigrationsSource string `env:"MIGRATIONS_SOURCE" envDefault:"file://migrations"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Shoutrrr URLs через запятую
	NotifyURLs []string `env:"NOTIFY_URLS"`

	// Gemini Config
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL  string        `env:"GEMINI_BASE_URL"`
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiTTSModel string        `env:"GEMINI_TTS_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
	GeminiVoice    string        `env:"GEMINI_VOICE" envDefault:"Algenib"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"60s"`

	// Twilio Config. Значения по умолчанию, пользователь может переопределить их в настройках
	TwilioBaseURL    string `env:"TWILIO_BASE_URL"`
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_FROM"`
	TwilioTo         string `env:"TWILIO_TO"`

	// Media Config
	MediaProvider  string        `env:"MEDIA_PROVIDER" envDefault:"local"`
	MediaLocalPath string        `env:"MEDIA_LOCAL_PATH" envDefault:"./media"`
	MediaBaseURL   string        `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8080/media"`
	MediaURLExpiry time.Duration `env:"MEDIA_URL_EXPIRY" envDefault:"1h"`

	// S3 / R2 Config
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccountID       string `env:"S3_ACCOUNT_ID"`
	S3Region          string `env:"S3_REGION" envDefault:"auto"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL       string `env:"S3_PUBLIC_URL"`
	S3PathStyle       bool   `env:"S3_PATH_STYLE" envDefault:"false"`

	// MinIO Config
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"sentinel"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	// Pipeline Config
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	ProgressInterval   time.Duration `env:"PROGRESS_INTERVAL" envDefault:"150ms"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" envDefault:"20971520"`
	NearbySource       string        `env:"NEARBY_SOURCE" envDefault:"static"`
	NearbyRadiusMeters float64       `env:"NEARBY_RADIUS_METERS" envDefault:"5000"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		MigrationsSource:   getEnv("MIGRATIONS_SOURCE", "file://migrations"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		WebhookURL:         os.Getenv("WEBHOOK_URL"),
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:     getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:  getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:   getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		NotifyURLs:         getEnvAsList("NOTIFY_URLS"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_GENAI_API_KEY")),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTTSModel:     getEnv("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		GeminiVoice:        getEnv("GEMINI_VOICE", "Algenib"),
		GatewayTimeout:     getEnvAsDuration("GATEWAY_TIMEOUT", 60*time.Second),
		TwilioBaseURL:      os.Getenv("TWILIO_BASE_URL"),
		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:         os.Getenv("TWILIO_FROM"),
		TwilioTo:           os.Getenv("TWILIO_TO"),
		MediaProvider:      getEnv("MEDIA_PROVIDER", "local"),
		MediaLocalPath:     getEnv("MEDIA_LOCAL_PATH", "./media"),
		MediaBaseURL:       getEnv("MEDIA_BASE_URL", "http://localhost:8080/media"),
		MediaURLExpiry:     getEnvAsDuration("MEDIA_URL_EXPIRY", time.Hour),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccountID:        os.Getenv("S3_ACCOUNT_ID"),
		S3Region:           getEnv("S3_REGION", "auto"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PublicURL:        os.Getenv("S3_PUBLIC_URL"),
		S3PathStyle:        getEnvAsBool("S3_PATH_STYLE", false),
		MinioEndpoint:      os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:        getEnv("MINIO_BUCKET", "sentinel"),
		MinioUseSSL:        getEnvAsBool("MINIO_USE_SSL", false),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		ProgressInterval:   getEnvAsDuration("PROGRESS_INTERVAL", 150*time.Millisecond),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 20<<20)),
		NearbySource:       getEnv("NEARBY_SOURCE", "static"),
		NearbyRadiusMeters: float64(getEnvAsInt("NEARBY_RADIUS_METERS", 5000)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	switch cfg.MediaProvider {
	case "local", "s3", "minio":
	default:
		return nil, fmt.Errorf("unknown MEDIA_PROVIDER %q", cfg.MediaProvider)
	}

	switch cfg.NearbySource {
	case "static", "postgres":
	default:
		return nil, fmt.Errorf("unknown NEARBY_SOURCE %q", cfg.NearbySource)
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsBool возвращает значение переменной окружения как bool или значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую, пустые элементы пропускаются
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
