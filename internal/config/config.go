package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/freshroots/harvest-backend/internal/core/eligibility"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Env      string
	Port     int
	MongoURI string
	MongoDB  string

	JWTSecret   string
	CORSOrigins []string

	// Store defaults, overridden by the settings document when present.
	Timezone                string
	DefaultCutoff           string
	FinishedOrderVisibility time.Duration
	DeliveryFee             float64
	FreeDeliveryAbove       float64

	LogJSON  bool
	LogLevel string

	StripeSecretKey     string
	StripeWebhookSecret string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
}

func Default() Config {
	return Config{
		Env:                     "dev",
		Port:                    8080,
		MongoURI:                "mongodb://localhost:27017",
		MongoDB:                 "harvest",
		CORSOrigins:             []string{"*"},
		Timezone:                "Asia/Kolkata",
		DefaultCutoff:           "22:30",
		FinishedOrderVisibility: 24 * time.Hour,
		DeliveryFee:             30,
		FreeDeliveryAbove:       499,
		LogJSON:                 false,
		LogLevel:                "info",
		CloudinaryFolder:        "harvest/products",
	}
}

// Load reads .env files (existing variables win) and then the environment.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("file", f).Warn("Could not read env file")
		}
	}
	return FromEnv(Default())
}

func FromEnv(c Config) Config {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		c.MongoDB = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("STORE_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("DEFAULT_CUTOFF"); v != "" {
		c.DefaultCutoff = v
	}
	if v := os.Getenv("FINISHED_ORDER_VISIBILITY_HOURS"); v != "" {
		if h, err := strconv.ParseFloat(v, 64); err == nil && h >= 0 {
			c.FinishedOrderVisibility = time.Duration(h * float64(time.Hour))
		}
	}
	if v := os.Getenv("DELIVERY_FEE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.DeliveryFee = f
		}
	}
	if v := os.Getenv("FREE_DELIVERY_ABOVE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FreeDeliveryAbove = f
		}
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogJSON = b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	c.StripeSecretKey = envOr("STRIPE_SECRET_KEY", c.StripeSecretKey)
	c.StripeWebhookSecret = strings.TrimSpace(envOr("STRIPE_WEBHOOK_SECRET", c.StripeWebhookSecret))
	c.CloudinaryCloudName = envOr("CLOUDINARY_CLOUD_NAME", c.CloudinaryCloudName)
	c.CloudinaryAPIKey = envOr("CLOUDINARY_API_KEY", c.CloudinaryAPIKey)
	c.CloudinaryAPISecret = envOr("CLOUDINARY_API_SECRET", c.CloudinaryAPISecret)
	c.CloudinaryFolder = envOr("CLOUDINARY_FOLDER", c.CloudinaryFolder)
	return c
}

func (c Config) Validate() error {
	if _, err := eligibility.ParseCutoff(c.DefaultCutoff); err != nil {
		return fmt.Errorf("DEFAULT_CUTOFF: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("STORE_TIMEZONE: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.Env != "dev" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside dev")
	}
	return nil
}

// Location returns the store time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StoreDefaults are the settings used until an operator saves their own.
func (c Config) StoreDefaults() models.Settings {
	return models.Settings{
		CutoffTime:              c.DefaultCutoff,
		FinishedOrderVisibility: c.FinishedOrderVisibility.Hours(),
		DeliveryFee:             c.DeliveryFee,
		FreeDeliveryAbove:       c.FreeDeliveryAbove,
	}
}

// SetupLogging configures the global logrus logger.
func (c Config) SetupLogging() {
	if c.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
