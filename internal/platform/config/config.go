package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	// AllowTeacherSignup lets /api/auth/register create teacher accounts.
	AllowTeacherSignup bool

	LogLevel  string
	LogFormat string

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Judge0URL          string
	Judge0APIKey       string
	Judge0APIHost      string
	Judge0AuthToken    string
	Judge0HTTPTimeout  time.Duration
	Judge0PollAttempts int
	Judge0PollInterval time.Duration

	DispatchMinDelay   time.Duration
	DispatchMaxRetries int
	DispatchCooldown   time.Duration
	DispatchMaxQueue   int

	QuotaKey             string
	GradingLockPrefix    string
	GradingLockTTL       time.Duration
	SubmissionRateLimit  int
	SubmissionRateWindow time.Duration
	SubmissionRatePrefix string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	AppConfig = FromEnv()
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() *Config {
	cfg := &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		JWTKey:        []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:        time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "code_practice"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),
		DBAutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		Judge0URL:          strings.TrimRight(getEnv("JUDGE0_URL", "https://judge0-ce.p.rapidapi.com"), "/"),
		Judge0APIKey:       getEnv("JUDGE0_API_KEY", ""),
		Judge0APIHost:      getEnv("JUDGE0_API_HOST", "judge0-ce.p.rapidapi.com"),
		Judge0AuthToken:    getEnv("JUDGE0_AUTH_TOKEN", ""),
		Judge0HTTPTimeout:  time.Duration(getEnvAsInt("JUDGE0_HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		Judge0PollAttempts: getEnvAsInt("JUDGE0_POLL_ATTEMPTS", 10),
		Judge0PollInterval: time.Duration(getEnvAsInt("JUDGE0_POLL_INTERVAL_MS", 1000)) * time.Millisecond,

		DispatchMinDelay:   time.Duration(getEnvAsInt("DISPATCH_MIN_DELAY_MS", 1000)) * time.Millisecond,
		DispatchMaxRetries: getEnvAsInt("DISPATCH_MAX_RETRIES", 3),
		DispatchCooldown:   time.Duration(getEnvAsInt("DISPATCH_COOLDOWN_SECONDS", 60)) * time.Second,
		DispatchMaxQueue:   getEnvAsInt("DISPATCH_MAX_QUEUE", 0),

		QuotaKey:             getEnv("JUDGE0_QUOTA_KEY", "judge0:quota_exhausted_until"),
		GradingLockPrefix:    getEnv("GRADING_LOCK_PREFIX", "grading:lock:"),
		GradingLockTTL:       time.Duration(getEnvAsInt("GRADING_LOCK_TTL_SECONDS", 300)) * time.Second,
		SubmissionRateLimit:  getEnvAsInt("SUBMISSION_RATE_LIMIT", 20),
		SubmissionRateWindow: time.Duration(getEnvAsInt("SUBMISSION_RATE_WINDOW_SECONDS", 60)) * time.Second,
		SubmissionRatePrefix: getEnv("SUBMISSION_RATE_PREFIX", "ratelimit:submissions:"),

		AllowTeacherSignup: getEnvAsBool("ALLOW_TEACHER_SIGNUP", true),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode
	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
