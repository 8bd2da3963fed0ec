package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the application configuration and the invoice settings holder.
var Module = fx.Options(
	fx.Provide(Load),
	fx.Provide(NewInvoiceSettingsHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	AdminEmail  string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Acumulus AcumulusConfig
	Shop     ShopConfig
	Email    EmailConfig
}

// AcumulusConfig carries the contract credentials for the Acumulus web service.
type AcumulusConfig struct {
	BaseURL      string
	ContractCode string
	UserName     string
	Password     string
	EmailOnError string
	TestMode     bool
}

// ShopConfig points at the WooCommerce installation that emits the webhooks.
type ShopConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	WebhookSecret  string
}

// EmailConfig configures the SMTP mailer used for failure reporting.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "acumulus-sync"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		AdminEmail:  getenv("ADMIN_EMAIL", ""),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "acumulus"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		Acumulus: AcumulusConfig{
			BaseURL:      getenv("ACUMULUS_BASE_URL", "https://api.sielsystems.nl/acumulus/stable"),
			ContractCode: strings.TrimSpace(getenv("ACUMULUS_CONTRACT_CODE", "")),
			UserName:     strings.TrimSpace(getenv("ACUMULUS_USERNAME", "")),
			Password:     getenv("ACUMULUS_PASSWORD", ""),
			EmailOnError: strings.TrimSpace(getenv("ACUMULUS_EMAIL_ON_ERROR", "")),
			TestMode:     getenvBool("ACUMULUS_TEST_MODE", false),
		},
		Shop: ShopConfig{
			BaseURL:        strings.TrimRight(getenv("SHOP_BASE_URL", ""), "/"),
			ConsumerKey:    strings.TrimSpace(getenv("SHOP_CONSUMER_KEY", "")),
			ConsumerSecret: getenv("SHOP_CONSUMER_SECRET", ""),
			WebhookSecret:  getenv("SHOP_WEBHOOK_SECRET", ""),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "noreply@localhost"),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
