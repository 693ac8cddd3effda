package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	SQLServer SQLServerConfig
	Auth      AuthConfig
	Knowledge KnowledgeConfig
	Inference InferenceConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port        int
	Env         string
	CORSOrigins []string
}

// DatabaseConfig configures the Postgres knowledge source
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	// Migrate creates the reference tables on startup
	Migrate bool
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// SQLServerConfig configures the SQL Server knowledge source
type SQLServerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Encrypt  bool
}

func (s SQLServerConfig) DSN() string {
	dsn := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		s.Host, s.Port, s.Database, s.User, s.Password)
	if s.Encrypt {
		dsn += ";encrypt=true;TrustServerCertificate=true"
	}
	return dsn
}

type AuthConfig struct {
	JWTSecret string
	// AdminRole is required for knowledge base reloads
	AdminRole string
}

// KnowledgeConfig selects where membership, rule and output tables come from.
type KnowledgeConfig struct {
	// Source: "csv", "yaml", "postgres" or "sqlserver"
	Source         string
	MembershipPath string
	RulesPath      string
	OutputsPath    string
	BundlePath     string
}

// InferenceConfig holds the defaults applied to diagnosis requests.
type InferenceConfig struct {
	// Strategy: "weighted" or "mamdani"
	Strategy string
	TopN     int
	// Accumulation: "last", "sum" or "max" (weighted strategy only)
	Accumulation string
	DomainMin    float64
	DomainMax    float64
	DomainPoints int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int
	Burst             int
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")
	logFormat := "text"
	if env == "production" {
		logFormat = "json"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvInt("SERVER_PORT", 8080),
			Env:         env,
			CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "fuzzydx"),
			Password: getEnv("DB_PASSWORD", "fuzzydx"),
			Database: getEnv("DB_NAME", "fuzzydx"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 4),
			Migrate:  getEnvBool("DB_MIGRATE", true),
		},
		SQLServer: SQLServerConfig{
			Host:     getEnv("MSSQL_HOST", "localhost"),
			Port:     getEnvInt("MSSQL_PORT", 1433),
			User:     getEnv("MSSQL_USER", "sa"),
			Password: getEnv("MSSQL_PASSWORD", ""),
			Database: getEnv("MSSQL_DB", "fuzzydx"),
			Encrypt:  getEnvBool("MSSQL_ENCRYPT", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			AdminRole: getEnv("ADMIN_ROLE", "admin"),
		},
		Knowledge: KnowledgeConfig{
			Source:         getEnv("KNOWLEDGE_SOURCE", "csv"),
			MembershipPath: getEnv("KNOWLEDGE_MEMBERSHIP_PATH", "data/member_function_respirasi.csv"),
			RulesPath:      getEnv("KNOWLEDGE_RULES_PATH", "data/bobot_respirasi.csv"),
			OutputsPath:    getEnv("KNOWLEDGE_OUTPUTS_PATH", "data/output_member_function.csv"),
			BundlePath:     getEnv("KNOWLEDGE_BUNDLE_PATH", "data/knowledge.yaml"),
		},
		Inference: InferenceConfig{
			Strategy:     getEnv("INFERENCE_STRATEGY", "weighted"),
			TopN:         getEnvInt("INFERENCE_TOP_N", 3),
			Accumulation: getEnv("INFERENCE_ACCUMULATION", "last"),
			DomainMin:    getEnvFloat("INFERENCE_DOMAIN_MIN", 0),
			DomainMax:    getEnvFloat("INFERENCE_DOMAIN_MAX", 10),
			DomainPoints: getEnvInt("INFERENCE_DOMAIN_POINTS", 1000),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvInt("RATE_LIMIT_RPS", 20),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 40),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", logFormat),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Knowledge.Source {
	case "csv", "yaml", "postgres", "sqlserver":
	default:
		return fmt.Errorf("unknown KNOWLEDGE_SOURCE %q", c.Knowledge.Source)
	}
	switch c.Inference.Strategy {
	case "weighted", "mamdani":
	default:
		return fmt.Errorf("unknown INFERENCE_STRATEGY %q", c.Inference.Strategy)
	}
	if c.Inference.TopN <= 0 {
		return fmt.Errorf("INFERENCE_TOP_N must be positive, got %d", c.Inference.TopN)
	}
	if c.Inference.DomainMin >= c.Inference.DomainMax || c.Inference.DomainPoints < 2 {
		return fmt.Errorf("invalid output domain [%g, %g] with %d points",
			c.Inference.DomainMin, c.Inference.DomainMax, c.Inference.DomainPoints)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, v := range splitAndTrim(value, ",") {
			if v != "" {
				result = append(result, v)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range splitString(s, sep) {
		trimmed := trimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func splitString(s, sep string) []string {
	if s == "" {
		return nil
	}
	var result []string
	start := 0
	for i := 0; i <= len(s)-len(sep); i++ {
		if s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}
