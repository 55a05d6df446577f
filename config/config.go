package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	LogLevel           string

	// Pricing
	TaxRate     float64 // e.g. 0.085 for 8.5%
	DeliveryFee float64 // flat fee applied to delivery orders

	// Rewards program
	RewardsAccrualRate float64 // stars earned per currency unit of subtotal
	GoldTierThreshold  float64 // lifetime spend required for gold tier

	// Order preparation time model (advisory estimate)
	PrepBaseMinutes             int
	PrepPerItemMinutes          int
	PrepPerCustomizationMinutes int

	// Caching
	CacheTTLMinutes int

	// Order numbering
	OrderNumberPrefix string
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			// In production, environment variables are set directly
			// so it's okay if .env files don't exist
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		TaxRate:     getEnvFloat("TAX_RATE", 0.085),
		DeliveryFee: getEnvFloat("DELIVERY_FEE", 3.99),

		RewardsAccrualRate: getEnvFloat("REWARDS_ACCRUAL_RATE", 0.02),
		GoldTierThreshold:  getEnvFloat("GOLD_TIER_THRESHOLD", 300),

		PrepBaseMinutes:             getEnvInt("PREP_BASE_MINUTES", 5),
		PrepPerItemMinutes:          getEnvInt("PREP_PER_ITEM_MINUTES", 2),
		PrepPerCustomizationMinutes: getEnvInt("PREP_PER_CUSTOMIZATION_MINUTES", 1),

		CacheTTLMinutes: getEnvInt("CACHE_TTL_MINUTES", 10),

		OrderNumberPrefix: getEnv("ORDER_NUMBER_PREFIX", "SB"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && !c.IsTest() {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.TaxRate < 0 {
		return fmt.Errorf("TAX_RATE must not be negative")
	}
	if c.RewardsAccrualRate < 0 {
		return fmt.Errorf("REWARDS_ACCRUAL_RATE must not be negative")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetDatabaseURL returns the database URL
func (c *Config) GetDatabaseURL() string {
	return c.DatabaseURL
}

var configInstance *Config

// SetConfig sets the global config instance (primarily for testing)
func SetConfig(cfg *Config) {
	configInstance = cfg
}

// GetConfig returns the global config instance, loading it on first use
func GetConfig() *Config {
	if configInstance == nil {
		cfg, err := Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		configInstance = cfg
	}
	return configInstance
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}
