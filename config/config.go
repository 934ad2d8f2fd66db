// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath     = pflag.String("config", "", "Path to a config.toml file")
	DeactivateUser = pflag.String("deactivate-user", "", "Soft-deactivates the account with the given email and exits")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "local"}
	validDrivers      = []string{"sqlite", "postgres"}
	validModes        = []string{"development", "production"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	// A missing .env is fine, the environment may be set some other way
	_ = godotenv.Load()

	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	bindEnvs()
	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		zap.L().Debug("No config.toml found, using defaults and environment")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as the JWT_SECRET environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return Validate()
}

func bindEnvs() {
	v.BindEnv("app.mode", "app_mode", "APP_ENV")
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port", "PORT")
	v.BindEnv("host.base_url", "host_base_url", "BASE_URL")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("jwt.secret", "jwt_secret", "JWT_SECRET")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.root", "storage_root", "UPLOADS_DIR")

	v.BindEnv("aws.access_key", "aws_access_key", "ACCESS_KEY_ID")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key", "SECRET_ACCESS_KEY")
	v.BindEnv("aws.region", "aws_region", "REGION")
	v.BindEnv("aws.bucket", "aws_bucket", "BUCKET")
	v.BindEnv("aws.endpoint", "aws_endpoint")

	v.BindEnv("openai.api_key", "openai_api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "openai_base_url", "OPENAI_BASE_URL")

	v.BindEnv("sdxl.base_url", "sdxl_base_url", "SDXL_BASE_URL")

	v.BindEnv("avatar.generation_timeout", "avatar_generation_timeout")

	v.BindEnv("pin.expose_demo", "pin_expose_demo")
	v.BindEnv("pin.cleanup_interval", "pin_cleanup_interval")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender_address", "mail_sender_address")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("redis.addr", "redis_addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "redis_password")
	v.BindEnv("redis.db", "redis_db")

	v.BindEnv("security.rate_limit", "security_rate_limit", "RATE_LIMIT")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("turnstile.enabled", "turnstile_enabled")
	v.BindEnv("turnstile.secret_token", "turnstile_secret_token")
}

// SetDefaults registers the default value of every known key. It's
// exported so tests can get a usable configuration without Setup.
func SetDefaults() {
	v.SetDefault("app.mode", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 3001)
	v.SetDefault("host.base_url", "")
	v.SetDefault("host.cors", "http://localhost:5173")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.root", "uploads")

	v.SetDefault("sdxl.base_url", "http://127.0.0.1:8000")

	v.SetDefault("avatar.generation_timeout", "5m")

	v.SetDefault("pin.cleanup_interval", "1h")

	v.SetDefault("mail.port", 587)

	v.SetDefault("security.rate_limit", 20)

	// Megabytes
	v.SetDefault("upload.max_size", 25)

	v.SetDefault("turnstile.enabled", false)
}

// Validate checks the loaded values and fills in the ones that depend
// on others.
func Validate() error {
	if !slices.Contains(validModes, v.GetString("app.mode")) {
		return errors.New("invalid app mode provided, use development or production")
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("host.base_url") == "" {
		v.Set("host.base_url", fmt.Sprintf("http://localhost:%d", v.GetInt("host.port")))
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	switch v.GetString("storage.type") {
	case "s3":
		if v.GetString("aws.access_key") == "" {
			return errors.New("aws access key can't be empty")
		}
		if v.GetString("aws.secret_access_key") == "" {
			return errors.New("aws secret access key can't be empty")
		}
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	case "local":
		if v.GetString("storage.root") == "" {
			return errors.New("storage root can't be empty")
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetDuration("avatar.generation_timeout") <= 0 {
		return errors.New("avatar.generation_timeout must be a positive duration")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	// The plaintext PIN only goes back to the caller when it was asked
	// for explicitly or while developing
	if !v.IsSet("pin.expose_demo") {
		v.Set("pin.expose_demo", IsDevelopment())
	}

	if v.GetBool("turnstile.enabled") && v.GetString("turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	if v.GetString("openai.api_key") == "" {
		zap.L().Warn("No OpenAI API key set, cloud avatar generation is disabled")
	}

	v.Set("upload.max_size_bytes", v.GetInt64("upload.max_size")<<20)
	return nil
}

// IsProduction reports whether the app runs in production mode
func IsProduction() bool {
	return v.GetString("app.mode") == "production"
}

func IsDevelopment() bool {
	return !IsProduction()
}
