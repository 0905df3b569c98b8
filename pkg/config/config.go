package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Gateway   GatewayConfig
	Email     EmailConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Client    ClientConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GatewayConfig struct {
	AllowedOrigins   []string
	AdminEmail       string
	MeetingURL       string
	ConsultantName   string
	ConsultantPhones string
	MailSendTimeout  time.Duration // 0 leaves dispatches unbounded
}

type EmailConfig struct {
	Provider       string // dev, smtp, mailersend or sendgrid
	From           string
	FromName       string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPUseTLS     bool
	MailerSendKey  string
	SendGridAPIKey string
}

type RedisConfig struct {
	URL string // empty disables idempotency and rate limiting
}

type NATSConfig struct {
	URL string // empty disables event publishing
}

type AuthConfig struct {
	JWTSecret string // empty disables bearer identity parsing
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type ClientConfig struct {
	APIURL  string
	Timeout time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	from := getEnv("EMAIL_USER", "noreply@localhost")

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3001"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Gateway: GatewayConfig{
			AllowedOrigins:   getList("ALLOWED_ORIGINS", []string{"https://mummy-website.vercel.app", "http://localhost:5173"}),
			AdminEmail:       getEnv("ADMIN_EMAIL", from),
			MeetingURL:       getEnv("MEETING_URL", "https://meet.google.com/new"),
			ConsultantName:   getEnv("CONSULTANT_NAME", "Vibha Upadhyay"),
			ConsultantPhones: getEnv("CONSULTANT_PHONES", "8175966910, 7236943125"),
			MailSendTimeout:  getDuration("MAIL_SEND_TIMEOUT", 0),
		},
		Email: EmailConfig{
			Provider:       strings.ToLower(getEnv("EMAIL_PROVIDER", "dev")),
			From:           from,
			FromName:       getEnv("EMAIL_FROM_NAME", "Vibha Upadhyay"),
			SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:       getInt("SMTP_PORT", 587),
			SMTPUser:       getEnv("SMTP_USER", from),
			SMTPPass:       getEnv("EMAIL_PASSWORD", ""),
			SMTPUseTLS:     getBool("SMTP_USE_TLS", true),
			MailerSendKey:  getEnv("MAILERSEND_API_KEY", ""),
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("RATE_LIMIT_REQUESTS", 10),
			Window:   getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Client: ClientConfig{
			APIURL:  getEnv("BOOKING_API_URL", "http://localhost:3001"),
			Timeout: getDuration("BOOKING_API_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getList splits a comma separated value, dropping blank entries.
func getList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
