package config

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

// RecognitionConfig holds every knob for talking to the external
// face-recognition service and for timing the cache jobs around sessions.
type RecognitionConfig struct {
	BaseURL            string
	TimeoutSeconds     int
	MaxRetries         int
	RetryDelaySeconds  int
	PreloadLeadMinutes int
	CleanupLagMinutes  int
	PreloadTimeoutSecs int
	EvictTimeoutSecs   int
	HealthTimeoutSecs  int
}

type Config struct {
	DB          *sql.DB
	Recognition RecognitionConfig
}

var AppConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "face_attendance")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("RECOGNITION_BASE_URL", "http://localhost:5000")
	v.SetDefault("RECOGNITION_TIMEOUT_SECONDS", 30)
	v.SetDefault("RECOGNITION_MAX_RETRIES", 3)
	v.SetDefault("RECOGNITION_RETRY_DELAY_SECONDS", 1)
	v.SetDefault("PRELOAD_LEAD_MINUTES", 10)
	v.SetDefault("CLEANUP_LAG_MINUTES", 30)
	v.SetDefault("CACHE_PRELOAD_TIMEOUT_SECONDS", 120)
	v.SetDefault("CACHE_EVICT_TIMEOUT_SECONDS", 30)
	v.SetDefault("HEALTH_TIMEOUT_SECONDS", 5)
}

// Load reads configuration from the environment (with defaults), opens the
// database connection and populates AppConfig.
func Load() error {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=10",
		v.GetString("DB_HOST"), v.GetInt("DB_PORT"), v.GetString("DB_USER"),
		v.GetString("DB_PASSWORD"), v.GetString("DB_NAME"), v.GetString("DB_SSLMODE"))

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	log.Println("Testing database connection...")
	if err = db.Ping(); err != nil {
		return fmt.Errorf("cannot establish database connection: %w", err)
	}

	AppConfig = &Config{
		DB: db,
		Recognition: RecognitionConfig{
			BaseURL:            v.GetString("RECOGNITION_BASE_URL"),
			TimeoutSeconds:     v.GetInt("RECOGNITION_TIMEOUT_SECONDS"),
			MaxRetries:         v.GetInt("RECOGNITION_MAX_RETRIES"),
			RetryDelaySeconds:  v.GetInt("RECOGNITION_RETRY_DELAY_SECONDS"),
			PreloadLeadMinutes: v.GetInt("PRELOAD_LEAD_MINUTES"),
			CleanupLagMinutes:  v.GetInt("CLEANUP_LAG_MINUTES"),
			PreloadTimeoutSecs: v.GetInt("CACHE_PRELOAD_TIMEOUT_SECONDS"),
			EvictTimeoutSecs:   v.GetInt("CACHE_EVICT_TIMEOUT_SECONDS"),
			HealthTimeoutSecs:  v.GetInt("HEALTH_TIMEOUT_SECONDS"),
		},
	}
	log.Printf("Database connected successfully (db=%s)", v.GetString("DB_NAME"))
	log.Printf("Recognition service: %s", AppConfig.Recognition.BaseURL)
	return nil
}

func GetDB() *sql.DB {
	return AppConfig.DB
}

func GetRecognition() RecognitionConfig {
	return AppConfig.Recognition
}
