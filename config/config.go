package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"leadengine/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type AIConfig struct {
	APIURL string `json:"api_url"`
	APIKey string `json:"-"`
	Model  string `json:"model"`
}

// CalendlyConfig holds the scheduling page for each call type.
type CalendlyConfig struct {
	ExecutiveStrategy string `json:"executive_strategy"`
	DivineStrategy    string `json:"divine_strategy"`
	AIImplementation  string `json:"ai_implementation"`
	GeneralDiscovery  string `json:"general_discovery"`
}

type Config struct {
	Environment    string `json:"environment"`
	ServerPort     string `json:"server_port"`
	AppURL         string `json:"app_url"`
	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	JWTSecret     string `json:"-"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"-"`

	SMTPHost         string `json:"smtp_host"`
	SMTPPort         int    `json:"smtp_port"`
	SMTPUsername     string `json:"smtp_username"`
	SMTPPassword     string `json:"-"`
	FromEmail        string `json:"from_email"`
	FromName         string `json:"from_name"`
	SalesNotifyEmail string `json:"sales_notify_email"`

	Redis     RedisConfig `json:"redis"`
	SentryDSN string      `json:"-"`
	AI        AIConfig    `json:"ai"`

	NurtureContentPath string         `json:"nurture_content_path"`
	CourseURL          string         `json:"course_url"`
	ConsultingURL      string         `json:"consulting_url"`
	ResourceURL        string         `json:"resource_url"`
	Calendly           CalendlyConfig `json:"calendly"`

	CalendarWebhookSecret string   `json:"-"`
	CORSOrigins           []string `json:"cors_origins"`
	RateLimitForms        int      `json:"rate_limit_forms"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		AppURL:         strings.TrimRight(getEnv("APP_URL", "http://localhost:5000"), "/"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "leadengine"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		FromEmail:        getEnv("SMTP_FROM_EMAIL", "hello@example.com"),
		FromName:         getEnv("SMTP_FROM_NAME", "AI Strategy Team"),
		SalesNotifyEmail: getEnv("SALES_NOTIFY_EMAIL", ""),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SentryDSN: getEnv("SENTRY_DSN", ""),
		AI: AIConfig{
			APIURL: getEnv("AI_API_URL", "https://api.openai.com/v1"),
			APIKey: getEnv("AI_API_KEY", ""),
			Model:  getEnv("AI_MODEL", "gpt-4o-mini"),
		},

		NurtureContentPath: getEnv("NURTURE_CONTENT_PATH", ""),
		CourseURL:          getEnv("COURSE_URL", ""),
		ConsultingURL:      getEnv("CONSULTING_URL", ""),
		ResourceURL:        getEnv("RESOURCE_URL", ""),
		Calendly: CalendlyConfig{
			ExecutiveStrategy: getEnv("CALENDLY_EXECUTIVE_URL", ""),
			DivineStrategy:    getEnv("CALENDLY_DIVINE_URL", ""),
			AIImplementation:  getEnv("CALENDLY_AI_URL", ""),
			GeneralDiscovery:  getEnv("CALENDLY_DISCOVERY_URL", ""),
		},

		CalendarWebhookSecret: getEnv("CALENDAR_WEBHOOK_SECRET", ""),
		CORSOrigins:           splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RateLimitForms:        getEnvAsInt("RATE_LIMIT_FORMS", 10),
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if AppConfig.Environment == "production" {
		if AppConfig.SMTPUsername == "" || AppConfig.SMTPPassword == "" {
			return fmt.Errorf("SMTP credentials are required in production")
		}
		if AppConfig.CalendarWebhookSecret == "" {
			return fmt.Errorf("CALENDAR_WEBHOOK_SECRET is required in production")
		}
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("SMTP: %s:%d (from %s)", AppConfig.SMTPHost, AppConfig.SMTPPort, AppConfig.FromEmail)
	log.Printf("Integrations: Redis(%t), Sentry(%t), AI(%t), custom nurture content(%t)",
		AppConfig.Redis.Enabled,
		AppConfig.SentryDSN != "",
		AppConfig.AI.APIKey != "",
		AppConfig.NurtureContentPath != "")
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Prospect{},
		&models.ScoringHistory{},
		&models.Assessment{},
		&models.ScheduledEmail{},
		&models.AdminUser{},
	)
}
