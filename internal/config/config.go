package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/taskhub/backend/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App           AppSettings           `yaml:"app"`
	Database      DatabaseSettings      `yaml:"database"`
	Server        ServerSettings        `yaml:"server"`
	JWT           JWTSettings           `yaml:"jwt"`
	Logging       LoggingSettings       `yaml:"logging"`
	CORS          CORSSettings          `yaml:"cors"`
	PasswordHash  HashSettings          `yaml:"password_hash"`
	PasswordReset PasswordResetSettings `yaml:"password_reset"`
	Mail          MailSettings          `yaml:"mail"`
	Contact       ContactSettings       `yaml:"contact"`
	Redis         RedisSettings         `yaml:"redis"`
	Metrics       MetricsSettings       `yaml:"metrics"`
	Seed          SeedSettings          `yaml:"seed"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings
type DatabaseSettings struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	MinConns int    `yaml:"min_conns" env:"DB_MIN_CONNS"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// JWTSettings contains JWT authentication settings
type JWTSettings struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	Expiry time.Duration `yaml:"expiry" env:"JWT_EXPIRY"`
	Issuer string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// HashSettings contains password hashing settings.
// Cost applies to bcrypt, the remaining fields to argon2id.
type HashSettings struct {
	Algorithm   string `yaml:"algorithm" env:"HASH_ALGORITHM"`
	Cost        int    `yaml:"cost" env:"HASH_COST"`
	Memory      uint32 `yaml:"memory" env:"HASH_MEMORY"`
	Iterations  uint32 `yaml:"iterations" env:"HASH_ITERATIONS"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM"`
	SaltLength  uint32 `yaml:"salt_length" env:"HASH_SALT_LENGTH"`
	KeyLength   uint32 `yaml:"key_length" env:"HASH_KEY_LENGTH"`
}

// PasswordResetSettings controls token lifetime and resend throttling.
type PasswordResetSettings struct {
	TokenExpiry       time.Duration `yaml:"token_expiry" env:"RESET_TOKEN_EXPIRY"`
	ResendCooldown    time.Duration `yaml:"resend_cooldown" env:"RESET_RESEND_COOLDOWN"`
	ResetURL          string        `yaml:"reset_url" env:"RESET_URL"`
	MinPasswordLength int           `yaml:"min_password_length" env:"RESET_MIN_PASSWORD_LENGTH"`
	MinResponseDelay  time.Duration `yaml:"min_response_delay" env:"RESET_MIN_RESPONSE_DELAY"`
}

// MailSettings configures the primary (SendGrid) and fallback (SMTP) transports.
type MailSettings struct {
	From           string        `yaml:"from" env:"MAIL_FROM"`
	FromName       string        `yaml:"from_name" env:"MAIL_FROM_NAME"`
	SendGridAPIKey string        `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	SMTPHost       string        `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort       int           `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUsername   string        `yaml:"smtp_username" env:"SMTP_USERNAME"`
	SMTPPassword   string        `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	SendTimeout    time.Duration `yaml:"send_timeout" env:"MAIL_SEND_TIMEOUT"`
}

// ContactSettings configures the contact form limiter and where messages go.
type ContactSettings struct {
	Window      time.Duration `yaml:"window" env:"CONTACT_WINDOW"`
	MaxRequests int           `yaml:"max_requests" env:"CONTACT_MAX_REQUESTS"`
	Recipient   string        `yaml:"recipient" env:"CONTACT_RECIPIENT"`
}

// RedisSettings points the rate limiter at a shared counter store.
// An empty Addr keeps counters in process memory.
type RedisSettings struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// MetricsSettings toggles the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `yaml:"path" env:"METRICS_PATH"`
}

// SeedSettings describes the administrator created by the seeder.
type SeedSettings struct {
	AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME"`
	AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
}

// ConnectionString returns the driver specific data source name.
func (dbs *DatabaseSettings) ConnectionString() string {
	if dbs.Driver == constants.DriverMySQL {
		password := dbs.Password
		if password != "" {
			password = ":" + password
		}
		return fmt.Sprintf(
			"%s%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
			dbs.User, password, dbs.Host, dbs.Port, dbs.Name,
		)
	}

	sslParams := constants.PostgresSSLDisable
	if dbs.SSLMode == "require" {
		sslParams = constants.PostgresSSLRequire
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s %s",
		dbs.Host, dbs.Port, dbs.User, dbs.Password, dbs.Name, sslParams,
	)
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return fmt.Sprintf("%s:%d", ss.Host, ss.Port)
}

// SMTPAddress returns host:port of the fallback transport, or "" when unset.
func (ms *MailSettings) SMTPAddress() string {
	if ms.SMTPHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", ms.SMTPHost, ms.SMTPPort)
}

// IsDevelopment checks if the application is running in development mode
func (as *AppSettings) IsDevelopment() bool {
	return strings.ToLower(as.Environment) == constants.EnvDevelopment
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// IsTesting checks if the application is running in testing mode
func (as *AppSettings) IsTesting() bool {
	return strings.ToLower(as.Environment) == constants.EnvTesting
}

var (
	// cfg holds the current application configuration
	cfg *AppConfig
)

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Environment wins over the file
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = config

	logConfig(config)

	return config, nil
}

// Get returns the current application configuration
func Get() *AppConfig {
	if cfg == nil {
		log.Fatal().Msg("configuration not loaded")
	}
	return cfg
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = "taskhub"
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.Driver == "" {
		config.Database.Driver = constants.DriverPostgres
	}
	if config.Database.Port == 0 {
		if config.Database.Driver == constants.DriverMySQL {
			config.Database.Port = 3306
		} else {
			config.Database.Port = 5432
		}
	}
	if config.Database.MaxConns == 0 {
		config.Database.MaxConns = constants.DefaultDBMaxConnections
	}
	if config.Database.MinConns == 0 {
		config.Database.MinConns = constants.DefaultDBMinConnections
	}

	if config.JWT.Expiry == 0 {
		config.JWT.Expiry = constants.DefaultJWTExpiry
	}
	if config.JWT.Issuer == "" {
		config.JWT.Issuer = constants.DefaultJWTIssuer
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	setHashDefaults(config)

	if config.PasswordReset.TokenExpiry == 0 {
		config.PasswordReset.TokenExpiry = constants.DefaultResetTokenExpiry
	}
	if config.PasswordReset.ResendCooldown == 0 {
		config.PasswordReset.ResendCooldown = constants.DefaultResetCooldown
	}
	if config.PasswordReset.ResetURL == "" {
		config.PasswordReset.ResetURL = constants.DefaultResetURL
	}
	if config.PasswordReset.MinPasswordLength == 0 {
		config.PasswordReset.MinPasswordLength = constants.DefaultMinPasswordLength
	}
	if config.PasswordReset.MinResponseDelay == 0 {
		config.PasswordReset.MinResponseDelay = constants.DefaultResponseDelay
	}

	if config.Mail.From == "" {
		config.Mail.From = constants.DefaultMailFrom
	}
	if config.Mail.FromName == "" {
		config.Mail.FromName = constants.DefaultMailFromName
	}
	if config.Mail.SMTPPort == 0 {
		config.Mail.SMTPPort = constants.DefaultSMTPPort
	}
	if config.Mail.SendTimeout == 0 {
		config.Mail.SendTimeout = constants.DefaultMailSendTimeout
	}

	if config.Contact.Window == 0 {
		config.Contact.Window = constants.DefaultContactWindow
	}
	if config.Contact.MaxRequests == 0 {
		config.Contact.MaxRequests = constants.DefaultContactMaxRequests
	}
	if config.Contact.Recipient == "" {
		config.Contact.Recipient = config.Mail.From
	}

	if config.Metrics.Path == "" {
		config.Metrics.Path = constants.DefaultMetricsPath
	}
}

func setHashDefaults(config *AppConfig) {
	if config.PasswordHash.Algorithm == "" {
		config.PasswordHash.Algorithm = constants.HashAlgorithmBcrypt
	}
	if config.PasswordHash.Cost == 0 {
		config.PasswordHash.Cost = constants.DefaultBcryptCost
	}
	if config.PasswordHash.Memory == 0 {
		// Lower for development, higher for production
		if config.App.IsProduction() {
			config.PasswordHash.Memory = constants.DefaultPasswordHashMemory
		} else {
			config.PasswordHash.Memory = constants.DevPasswordHashMemory
		}
	}
	if config.PasswordHash.Iterations == 0 {
		if config.App.IsProduction() {
			config.PasswordHash.Iterations = constants.DefaultPasswordHashIterations
		} else {
			config.PasswordHash.Iterations = constants.DevPasswordHashIterations
		}
	}
	if config.PasswordHash.Parallelism == 0 {
		config.PasswordHash.Parallelism = constants.DefaultPasswordHashParallelism
	}
	if config.PasswordHash.SaltLength == 0 {
		config.PasswordHash.SaltLength = constants.DefaultPasswordHashSaltLength
	}
	if config.PasswordHash.KeyLength == 0 {
		config.PasswordHash.KeyLength = constants.DefaultPasswordHashKeyLength
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	if config.App.IsProduction() && (config.JWT.Secret == "" || config.JWT.Secret == "changeme") {
		return fmt.Errorf("JWT secret must be set in production")
	}

	driver := strings.ToLower(config.Database.Driver)
	if driver != constants.DriverPostgres && driver != constants.DriverMySQL && driver != constants.DriverMemory {
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}
	config.Database.Driver = driver
	if driver == constants.DriverMemory && config.App.IsProduction() {
		return fmt.Errorf("memory database driver is not allowed in production")
	}

	if driver != constants.DriverMemory && config.Database.User == "" {
		return fmt.Errorf("database user must be set")
	}

	algo := strings.ToLower(config.PasswordHash.Algorithm)
	if algo != constants.HashAlgorithmBcrypt && algo != constants.HashAlgorithmArgon2id {
		return fmt.Errorf("unsupported password hash algorithm: %s", config.PasswordHash.Algorithm)
	}
	config.PasswordHash.Algorithm = algo

	if config.PasswordReset.ResendCooldown < 0 || config.PasswordReset.TokenExpiry < 0 {
		return fmt.Errorf("password reset durations must not be negative")
	}
	if config.Contact.MaxRequests < 0 {
		return fmt.Errorf("contact max_requests must not be negative")
	}

	logLevel := strings.ToLower(config.Logging.Level)
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	validLevel := false
	for _, level := range validLevels {
		if logLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	log.Info().
		Str("environment", config.App.Environment).
		Str("version", config.App.Version).
		Str("server", config.Server.ServerAddress()).
		Str("db_driver", config.Database.Driver).
		Str("db_host", config.Database.Host).
		Int("db_port", config.Database.Port).
		Str("db_name", config.Database.Name).
		Str("hash_algorithm", config.PasswordHash.Algorithm).
		Bool("sendgrid", config.Mail.SendGridAPIKey != "").
		Bool("smtp_fallback", config.Mail.SMTPHost != "").
		Bool("redis", config.Redis.Addr != "").
		Str("log_level", config.Logging.Level).
		Msg("Configuration loaded")
}
