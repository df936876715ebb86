package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Tracing   TracingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

func (a AppConfig) IsProduction() bool  { return a.Environment == "production" }
func (a AppConfig) IsDevelopment() bool { return a.Environment == "development" }

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type DatabaseConfig struct {
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

// DSN is the libpq keyword/value form the gorm postgres driver expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SampleRate   float64
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// AuthRequestsPerMinute applies per client IP to register, login and refresh.
	AuthRequestsPerMinute int
}

// StorageConfig points at the S3 bucket holding insurance documents.
// Endpoint is only set for S3-compatible stores such as MinIO.
type StorageConfig struct {
	Region         string
	Bucket         string
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UsePathStyle   bool
	PresignTTL     time.Duration
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        envString("APP_NAME", "carelink-api"),
			Environment: envString("APP_ENV", "development"),
			Version:     envString("APP_VERSION", "0.0.0"),
		},
		Server:    loadServer(),
		Database:  loadDatabase(),
		JWT:       loadJWT(),
		Log:       loadLog(),
		Tracing:   loadTracing(),
		CORS:      loadCORS(),
		RateLimit: loadRateLimit(),
		Storage:   loadStorage(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadServer() ServerConfig {
	return ServerConfig{
		Host:            envString("SERVER_HOST", "0.0.0.0"),
		Port:            envInt("SERVER_PORT", 8080),
		ReadTimeout:     envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    envDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     envDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: envDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:               envString("DB_HOST", "localhost"),
		Port:               envInt("DB_PORT", 5432),
		Name:               envString("DB_NAME", "carelink"),
		User:               envString("DB_USER", "carelink"),
		Password:           envString("DB_PASSWORD", ""),
		SSLMode:            envString("DB_SSLMODE", "require"),
		MaxOpenConns:       envInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:       envInt("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime:    envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnMaxIdleTime:    envDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		SlowQueryThreshold: envDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
	}
}

func loadJWT() JWTConfig {
	return JWTConfig{
		Secret:          envString("JWT_SECRET", ""),
		Issuer:          envString("JWT_ISSUER", "carelink-api"),
		AccessTokenTTL:  envDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL: envDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
	}
}

func loadLog() LogConfig {
	return LogConfig{
		Level:      envString("LOG_LEVEL", "info"),
		Format:     envString("LOG_FORMAT", "json"),
		OutputPath: envString("LOG_OUTPUT", "stdout"),
	}
}

func loadTracing() TracingConfig {
	return TracingConfig{
		Enabled:      envBool("TRACING_ENABLED", false),
		ServiceName:  envString("TRACING_SERVICE_NAME", "carelink-api"),
		OTLPEndpoint: envString("OTLP_ENDPOINT", "otel-collector:4318"),
		SampleRate:   envFloat("TRACING_SAMPLE_RATE", 0.1),
	}
}

func loadCORS() CORSConfig {
	return CORSConfig{
		AllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		AllowedMethods: envList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders: envList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type", "X-Request-ID"}),
		MaxAge:         envDuration("CORS_MAX_AGE", 12*time.Hour),
	}
}

func loadRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond:     envFloat("RATE_LIMIT_RPS", 50),
		BurstSize:             envInt("RATE_LIMIT_BURST", 100),
		AuthRequestsPerMinute: envInt("RATE_LIMIT_AUTH_RPM", 10),
	}
}

func loadStorage() StorageConfig {
	return StorageConfig{
		Region:         envString("AWS_REGION", "us-east-2"),
		Bucket:         envString("STORAGE_BUCKET", "carelink-insurance"),
		Endpoint:       envString("STORAGE_ENDPOINT", ""),
		AccessKey:      envString("AWS_ACCESS_KEY", ""),
		SecretKey:      envString("AWS_SECRET_KEY", ""),
		UsePathStyle:   envBool("STORAGE_PATH_STYLE", false),
		PresignTTL:     envDuration("STORAGE_PRESIGN_TTL", 15*time.Minute),
		MaxUploadBytes: envInt64("STORAGE_MAX_UPLOAD_BYTES", 20<<20),
		RequestTimeout: envDuration("STORAGE_REQUEST_TIMEOUT", 2*time.Minute),
	}
}
