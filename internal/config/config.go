package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	WebSocket    WebSocketConfig
	CORS         CORSConfig
	Logging      LoggingConfig
	Signature    SignatureConfig
	Verification VerificationConfig
	Telemetry    TelemetryConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
	// PublicBaseURL is the origin printed into verification links and QR codes.
	PublicBaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// URL is the CouchDB server URL with credentials.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "http",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + d.Port,
	}
	return u.String()
}

// DBURL is the URL of the application database itself.
func (d DatabaseConfig) DBURL() string {
	return d.URL() + "/" + url.PathEscape(d.Name)
}

type JWTConfig struct {
	Secret                 string
	Expiration             time.Duration
	RefreshTokenExpiration time.Duration
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxConnPerUser  int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
}

// SignatureConfig fixes the capture canvas for the whole deployment.
type SignatureConfig struct {
	CanvasWidth  int
	CanvasHeight int
}

type VerificationConfig struct {
	FetchTimeout time.Duration
	QRSize       int
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() (*Config, error) {
	godotenv.Load()

	jwtExp, err := getEnvAsDuration("JWT_EXPIRATION", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	refreshExp, err := getEnvAsDuration("REFRESH_TOKEN_EXPIRATION", 168*time.Hour)
	if err != nil {
		return nil, err
	}

	verifyTimeout, err := getEnvAsDuration("VERIFY_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	port := getEnv("PORT", "8080")

	cfg := &Config{
		Server: ServerConfig{
			Port:          port,
			Host:          getEnv("HOST", "0.0.0.0"),
			Env:           getEnv("ENV", "development"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "suratku"),
		},
		JWT: JWTConfig{
			Secret:                 getEnv("JWT_SECRET", "dev-secret-change-in-production"),
			Expiration:             jwtExp,
			RefreshTokenExpiration: refreshExp,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 4096),
			MaxMessageSize:  int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 65536)),
			WriteWait:       10 * time.Second,
			PongWait:        60 * time.Second,
			PingPeriod:      54 * time.Second,
			MaxConnPerUser:  getEnvAsInt("WS_MAX_CONN_PER_USER", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Signature: SignatureConfig{
			CanvasWidth:  getEnvAsInt("SIGNATURE_CANVAS_WIDTH", 500),
			CanvasHeight: getEnvAsInt("SIGNATURE_CANVAS_HEIGHT", 200),
		},
		Verification: VerificationConfig{
			FetchTimeout: verifyTimeout,
			QRSize:       getEnvAsInt("VERIFY_QR_SIZE", 256),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", true),
			Endpoint:    getEnv("OTEL_EXPORTER_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "suratku-server"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Signature.CanvasWidth <= 0 || c.Signature.CanvasHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid signature canvas %dx%d", c.Signature.CanvasWidth, c.Signature.CanvasHeight))
	}
	if c.Verification.QRSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid VERIFY_QR_SIZE %d", c.Verification.QRSize))
	}
	if c.Verification.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid VERIFY_FETCH_TIMEOUT %s", c.Verification.FetchTimeout))
	}
	if u, err := url.Parse(c.Server.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid PUBLIC_BASE_URL %q", c.Server.PublicBaseURL))
	}
	if c.Server.Env == "production" && strings.HasPrefix(c.JWT.Secret, "dev-secret") {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
