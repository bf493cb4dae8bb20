package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	AppEnv string

	DBDriver   string // postgres, mysql or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDSN      string // Overrides the individual DB_* values when set

	JWTKey          string
	SessionTTLHours int
	CookieSecure    bool
	CookieDomain    string
	AllowedOrigins  string
	SaltRound       int

	AdminName     string
	AdminEmail    string
	AdminPassword string

	MediaDriver             string // host, gcs or disk
	MediaHostURL            string
	MediaHostAPIKey         string
	MediaDiskDir            string
	MediaPublicBaseURL      string
	GCSBucket               string
	GCSCredentialsFile      string
	MediaMaxUploadMB        int
	MediaCleanupCron        string
	MediaCleanupMaxAttempts int

	SendgridAPIKey  string
	EmailSender     string
	EmailSenderName string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

const defaultJWTKey = "defaultSecret"

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == defaultJWTKey {
		if AppConfig.IsProduction() {
			log.Fatal("JWT_SECRET_KEY must be set in production")
		}
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
}

// FromEnv builds a Config from the current process environment.
func FromEnv() *Config {
	return &Config{
		Port:   getEnv("PORT", "3000"),
		AppEnv: getEnv("APP_ENV", "development"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBDSN:      getEnv("DB_DSN", ""),

		JWTKey:          getEnv("JWT_SECRET_KEY", defaultJWTKey),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24*7),
		CookieSecure:    getEnvBool("COOKIE_SECURE", false),
		CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:5173"),
		SaltRound:       getEnvInt("SALT_ROUND", 10),

		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		MediaDriver:             strings.ToLower(getEnv("MEDIA_DRIVER", "disk")),
		MediaHostURL:            getEnv("MEDIA_HOST_URL", ""),
		MediaHostAPIKey:         getEnv("MEDIA_HOST_API_KEY", ""),
		MediaDiskDir:            getEnv("MEDIA_DISK_DIR", "./public/uploads"),
		MediaPublicBaseURL:      getEnv("MEDIA_PUBLIC_BASE_URL", "/uploads"),
		GCSBucket:               getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile:      getEnv("GCS_CREDENTIALS_FILE", ""),
		MediaMaxUploadMB:        getEnvInt("MEDIA_MAX_UPLOAD_MB", 20),
		MediaCleanupCron:        getEnv("MEDIA_CLEANUP_CRON", "*/15 * * * *"),
		MediaCleanupMaxAttempts: getEnvInt("MEDIA_CLEANUP_MAX_ATTEMPTS", 5),

		SendgridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", "no-reply@localhost"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "LMS Admin"),
	}
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.AppEnv)
	return env == "prod" || env == "production"
}

// Origins splits AllowedOrigins into a cleaned list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}
