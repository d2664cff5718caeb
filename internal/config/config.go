package config

import (
	"fmt"
	"os"
	"strconv"
)

const EnvProduction = "production"

// AppConfig holds the non-database runtime settings
type AppConfig struct {
	JWTSecret    string
	ServerPort   string
	Environment  string
	UploadsDir   string
	SMTPHost     string
	SMTPPort     int
	EmailUser    string
	EmailPass    string
	ResetURLBase string
	LogLevel     string
}

// LoadAppConfig reads application settings from environment variables
func LoadAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		JWTSecret:    os.Getenv("JWT_SECRET_KEY"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		Environment:  getEnv("APP_ENV", "development"),
		UploadsDir:   getEnv("UPLOADS_DIR", "uploads"),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		EmailUser:    os.Getenv("EMAIL_USER"),
		EmailPass:    os.Getenv("EMAIL_PASS"),
		ResetURLBase: getEnv("RESET_URL_BASE", "http://localhost:8080/api/auth/reset-password"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}

	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTPPort = port

	return cfg, nil
}

// IsProduction reports whether cookies must carry the Secure flag
func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}
