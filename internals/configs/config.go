package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AppConfig is built once in main and handed to constructors.
type AppConfig struct {
	Port   string
	AppEnv string

	// session + device
	JWTSecret         string
	JWTTTL            time.Duration
	DeviceTokenSecret string
	DeviceTTL         time.Duration

	// otp
	OTPLength          int
	OTPTTL             time.Duration
	OTPMaxAttempts     int
	OTPRateLimitMax    int
	OTPRateLimitWindow time.Duration
	BcryptCost         int

	// attendance calendar
	Timezone string

	CORSOrigins []string
	RedisURL    string

	// peers allowed to set X-Forwarded-For; empty means the socket peer is the client
	TrustedProxies []string

	SMSAPIKey      string
	SMSSenderID    string
	GoogleClientID string

	CleanupCron     string
	AutoMigrate     bool
	SeedSchoolsFile string
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		zap.L().Info("running on managed platform, using system env")
		return
	}
	if err := godotenv.Load(); err != nil {
		zap.L().Warn(".env not found, using system env")
		return
	}
	zap.L().Info(".env loaded")
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetEnvInt(key string, def int) int {
	if v := GetEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		zap.L().Warn("invalid int env, using default", zap.String("key", key), zap.Int("default", def))
	}
	return def
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	if v := GetEnv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		zap.L().Warn("invalid duration env, using default", zap.String("key", key), zap.Duration("default", def))
	}
	return def
}

func GetEnvBool(key string, def bool) bool {
	if v := GetEnv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Load reads the typed config. Call after LoadEnv.
func Load() AppConfig {
	cfg := AppConfig{
		Port:   GetEnv("PORT", "3000"),
		AppEnv: GetEnv("APP_ENV", "development"),

		JWTSecret:         GetEnv("JWT_SECRET"),
		JWTTTL:            GetEnvDuration("JWT_TTL", 7*24*time.Hour),
		DeviceTokenSecret: GetEnv("DEVICE_TOKEN_SECRET"),
		DeviceTTL:         GetEnvDuration("DEVICE_TTL", 30*24*time.Hour),

		OTPLength:          GetEnvInt("OTP_LENGTH", 6),
		OTPTTL:             GetEnvDuration("OTP_TTL", 5*time.Minute),
		OTPMaxAttempts:     GetEnvInt("OTP_MAX_ATTEMPTS", 5),
		OTPRateLimitMax:    GetEnvInt("OTP_RATE_LIMIT_MAX", 5),
		OTPRateLimitWindow: GetEnvDuration("OTP_RATE_LIMIT_WINDOW", 15*time.Minute),
		BcryptCost:         GetEnvInt("OTP_BCRYPT_COST", bcrypt.DefaultCost),

		Timezone: GetEnv("APP_TIMEZONE", "Asia/Kolkata"),

		CORSOrigins: splitCSV(GetEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")),
		RedisURL:    GetEnv("REDIS_URL"),

		TrustedProxies: splitCSV(GetEnv("TRUSTED_PROXIES")),

		SMSAPIKey:      GetEnv("FAST2SMS_API_KEY"),
		SMSSenderID:    GetEnv("FAST2SMS_SENDER_ID", "SCHLKU"),
		GoogleClientID: GetEnv("GOOGLE_CLIENT_ID"),

		CleanupCron: GetEnv("AUTH_CLEANUP_CRON", "@every 1h"),
		AutoMigrate: GetEnvBool("DB_AUTO_MIGRATE", false),

		SeedSchoolsFile: GetEnv("SEED_SCHOOLS_FILE"),
	}

	if cfg.DeviceTokenSecret == "" {
		cfg.DeviceTokenSecret = cfg.JWTSecret
	}
	return cfg
}

func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitCSV(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
