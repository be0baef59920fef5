package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDriver string
	DBDSN    string
	MediaDir string
	LogFile  string

	RequestTimeout time.Duration

	PaystackBaseURL string
	PaystackSecret  string
	VerifyTimeout   time.Duration

	RedisAddr     string
	RedisPassword string
	BankCacheTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

func Load() Config {
	// .env is optional; real environment always wins.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] could not read .env: %v", err)
	}

	cfg := Config{
		Port:     env("PORT", "8080"),
		DBDriver: env("DB_DRIVER", "sqlite"),
		DBDSN:    env("DB_DSN", "sellerhub.db"), // sqlite file in project root
		MediaDir: env("MEDIA_DIR", "./uploads"),
		LogFile:  env("LOG_FILE", "./sellerhub.log"),

		RequestTimeout: duration("REQUEST_TIMEOUT", 15*time.Second),

		PaystackBaseURL: env("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackSecret:  os.Getenv("PAYSTACK_SECRET_KEY"),
		VerifyTimeout:   duration("VERIFY_TIMEOUT", 10*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		BankCacheTTL:  duration("BANK_CACHE_TTL", 6*time.Hour),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     integer("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     env("MAIL_FROM", "no-reply@sellerhub.local"),
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s REDIS=%t SMTP=%t",
		cfg.Port, cfg.DBDriver, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.RedisAddr != "", cfg.SMTPHost != "")
	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] bad %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
