package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application configuration
type Config struct {
	Port             int
	LogLevel         string
	LogPretty        bool
	DataDir          string
	RulesProfile     string
	RulesRegistryURL string
	// AdminPasswordHash is a bcrypt hash. A plain ADMIN_PASSWORD is hashed at
	// load time and never kept.
	AdminPasswordHash []byte
	SummarySchedule   string
	LeaderboardSize   int
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("LOG_PRETTY", false),
		DataDir:          getEnv("DATA_DIR", "./data"),
		RulesProfile:     getEnv("RULES_PROFILE", "v7"),
		RulesRegistryURL: getEnv("RULES_REGISTRY_URL", ""),
		SummarySchedule:  os.Getenv("SUMMARY_SCHEDULE"),
		LeaderboardSize:  getEnvAsInt("LEADERBOARD_SIZE", 5),
	}
	if _, set := os.LookupEnv("SUMMARY_SCHEDULE"); !set {
		cfg.SummarySchedule = "@every 15m"
	}

	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.AdminPasswordHash = []byte(hash)
	} else if plain := os.Getenv("ADMIN_PASSWORD"); plain != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		cfg.AdminPasswordHash = hash
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg.DataDir = absDir

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if len(c.AdminPasswordHash) == 0 {
		return fmt.Errorf("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
	}
	if _, err := bcrypt.Cost(c.AdminPasswordHash); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}
	if c.LeaderboardSize < 1 {
		return fmt.Errorf("LEADERBOARD_SIZE must be positive, got %d", c.LeaderboardSize)
	}
	return nil
}

// DatabasePath is the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "submissions.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
