package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Application struct {
	Name        string
	Environment string
	Port        int
	Timeout     time.Duration
	Debug       bool
	BaseURL     string
}

type CORS struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	MaxAge           int
	AllowCredentials bool
}

type Mongo struct {
	URI         string
	Database    string
	MaxPoolSize uint64
}

type Redis struct {
	Address  string
	Password string
	DB       int
}

type Kafka struct {
	BootstrapServers string
}

type Stripe struct {
	BaseURL            string
	SecretKey          string
	WebhookSecret      string
	SignatureTolerance time.Duration
}

type JWT struct {
	PrivateKey []byte
	PublicKey  []byte
}

type GCP struct {
	ProjectID      string
	LocationID     string
	ServiceAccount []byte
}

type Fulfillment struct {
	MaxPersistAttempts int
	RetryQueue         string
	RetryDelay         time.Duration
}

type Monitoring struct {
	OTLPEndpoint string
}

type Config struct {
	Application Application
	CORS        CORS
	Mongo       Mongo
	Redis       Redis
	Kafka       Kafka
	Stripe      Stripe
	JWT         JWT
	GCP         GCP
	Fulfillment Fulfillment
	Monitoring  Monitoring
}

var (
	c    *Config
	once sync.Once
)

// Get loads the configuration from the environment once and returns it on
// every subsequent call.
func Get() *Config {
	once.Do(func() {
		v := viper.New()
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		v.SetDefault("app.name", "dissonant-pulse")
		v.SetDefault("app.environment", "development")
		v.SetDefault("app.port", 8080)
		v.SetDefault("app.timeout", "10s")
		v.SetDefault("app.debug", false)
		v.SetDefault("app.base_url", "http://localhost:8080")

		v.SetDefault("cors.allowed_origins", []string{"*"})
		v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
		v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type"})
		v.SetDefault("cors.exposed_headers", []string{"X-Trace-Id"})
		v.SetDefault("cors.max_age", 3600)
		v.SetDefault("cors.allow_credentials", true)

		v.SetDefault("mongo.uri", "mongodb://localhost:27017")
		v.SetDefault("mongo.database", "dissonant_pulse")
		v.SetDefault("mongo.max_pool_size", 100)

		v.SetDefault("redis.address", "localhost:6379")
		v.SetDefault("redis.password", "")
		v.SetDefault("redis.db", 0)

		v.SetDefault("kafka.bootstrap_servers", "localhost:9092")

		v.SetDefault("stripe.base_url", "https://api.stripe.com")
		v.SetDefault("stripe.signature_tolerance", "5m")

		v.SetDefault("fulfillment.max_persist_attempts", 3)
		v.SetDefault("fulfillment.retry_queue", "fulfillment-retry")
		v.SetDefault("fulfillment.retry_delay", "30s")

		v.SetDefault("gcp.location_id", "europe-west2")

		v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")

		c = &Config{
			Application: Application{
				Name:        v.GetString("app.name"),
				Environment: v.GetString("app.environment"),
				Port:        v.GetInt("app.port"),
				Timeout:     v.GetDuration("app.timeout"),
				Debug:       v.GetBool("app.debug"),
				BaseURL:     v.GetString("app.base_url"),
			},
			CORS: CORS{
				AllowedOrigins:   v.GetStringSlice("cors.allowed_origins"),
				AllowedMethods:   v.GetStringSlice("cors.allowed_methods"),
				AllowedHeaders:   v.GetStringSlice("cors.allowed_headers"),
				ExposedHeaders:   v.GetStringSlice("cors.exposed_headers"),
				MaxAge:           v.GetInt("cors.max_age"),
				AllowCredentials: v.GetBool("cors.allow_credentials"),
			},
			Mongo: Mongo{
				URI:         v.GetString("mongo.uri"),
				Database:    v.GetString("mongo.database"),
				MaxPoolSize: v.GetUint64("mongo.max_pool_size"),
			},
			Redis: Redis{
				Address:  v.GetString("redis.address"),
				Password: v.GetString("redis.password"),
				DB:       v.GetInt("redis.db"),
			},
			Kafka: Kafka{
				BootstrapServers: v.GetString("kafka.bootstrap_servers"),
			},
			Stripe: Stripe{
				BaseURL:            v.GetString("stripe.base_url"),
				SecretKey:          v.GetString("stripe.secret_key"),
				WebhookSecret:      v.GetString("stripe.webhook_secret"),
				SignatureTolerance: v.GetDuration("stripe.signature_tolerance"),
			},
			JWT: JWT{
				PrivateKey: []byte(v.GetString("jwt.private_key")),
				PublicKey:  []byte(v.GetString("jwt.public_key")),
			},
			GCP: GCP{
				ProjectID:      v.GetString("gcp.project_id"),
				LocationID:     v.GetString("gcp.location_id"),
				ServiceAccount: []byte(v.GetString("gcp.service_account")),
			},
			Fulfillment: Fulfillment{
				MaxPersistAttempts: v.GetInt("fulfillment.max_persist_attempts"),
				RetryQueue:         v.GetString("fulfillment.retry_queue"),
				RetryDelay:         v.GetDuration("fulfillment.retry_delay"),
			},
			Monitoring: Monitoring{
				OTLPEndpoint: v.GetString("monitoring.otlp_endpoint"),
			},
		}
	})

	return c
}
