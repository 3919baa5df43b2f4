// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Auth   AuthConfig
	Mail   MailConfig
	Upload UploadConfig
	Pages  PageConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// AdminEmail registers as an administrator account automatically.
	AdminEmail string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	// BasePath is the root directory for the database, auth key, and uploads.
	BasePath string
	// UploadPath is the directory for uploaded photos and avatars
	// (default: {data}/uploads).
	UploadPath string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	BaseURL      string        // Public URL used in email links (default: http://localhost:8080)
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for tokens (32 bytes)
	TokenKey []byte
	// AccessTokenDuration is the login token lifetime (e.g., 24h).
	AccessTokenDuration time.Duration
	// ActionTokenDuration is the lifetime of confirm / reset / change-email
	// tokens sent by email (e.g., 1h).
	ActionTokenDuration time.Duration
}

// MailConfig holds outgoing mail configuration.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string // From address (default: Albumy Admin <username>)
	Enabled  bool   // When false, mail is logged instead of sent
}

// UploadConfig holds photo upload configuration.
type UploadConfig struct {
	MaxSize      int64    // Maximum upload size in bytes (default: 3 MiB)
	AllowedExts  []string // Allowed file extensions (default: .jpg, .jpeg, .png)
	PhotoSizeS   int      // Small rendition width in pixels (default: 400)
	PhotoSizeM   int      // Medium rendition width in pixels (default: 800)
}

// PageConfig holds per-listing page sizes.
type PageConfig struct {
	PhotoPerPage        int // default: 12
	CommentPerPage      int // default: 15
	UserPerPage         int // default: 20
	NotificationPerPage int // default: 20
	ManagePerPage       int // default: 20
	SearchPerPage       int // default: 20
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	uploadPath := flag.String("upload-path", "", "Path for uploaded photos")
	serverName := flag.String("server-name", "", "Name for the server")
	baseURL := flag.String("base-url", "", "Public base URL used in email links")
	adminEmail := flag.String("admin-email", "", "Email address that registers as administrator")

	// Auth flags
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")
	actionTokenDuration := flag.String("action-token-duration", "", "Email action token lifetime (e.g., 1h)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Mail flags
	mailHost := flag.String("mail-host", "", "SMTP server host")
	mailPort := flag.String("mail-port", "", "SMTP server port (default: 587)")
	mailUsername := flag.String("mail-username", "", "SMTP username")
	mailPassword := flag.String("mail-password", "", "SMTP password")
	mailSender := flag.String("mail-sender", "", "From address for outgoing mail")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			AdminEmail:  strings.ToLower(getConfigValue(*adminEmail, "ADMIN_EMAIL", "")),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath:   getConfigValue(*dataPath, "DATA_PATH", ""),
			UploadPath: getConfigValue(*uploadPath, "UPLOAD_PATH", ""),
		},
		Server: ServerConfig{
			Name:    getConfigValue(*serverName, "SERVER_NAME", "Albumy"),
			BaseURL: getConfigValue(*baseURL, "SERVER_BASE_URL", "http://localhost:8080"),
			Port:    getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Auth: AuthConfig{
			TokenKey: nil, // Will be set by auth.LoadOrGenerateKey in main
		},
		Mail: MailConfig{
			Host:     getConfigValue(*mailHost, "MAIL_HOST", ""),
			Port:     getIntConfigValue(*mailPort, "MAIL_PORT", 587),
			Username: getConfigValue(*mailUsername, "MAIL_USERNAME", ""),
			Password: getConfigValue(*mailPassword, "MAIL_PASSWORD", ""),
			Sender:   getConfigValue(*mailSender, "MAIL_SENDER", ""),
		},
		Upload: UploadConfig{
			MaxSize:     int64(getIntConfigValue("", "UPLOAD_MAX_SIZE", 3*1024*1024)),
			AllowedExts: []string{".jpg", ".jpeg", ".png"},
			PhotoSizeS:  getIntConfigValue("", "PHOTO_SIZE_S", 400),
			PhotoSizeM:  getIntConfigValue("", "PHOTO_SIZE_M", 800),
		},
		Pages: PageConfig{
			PhotoPerPage:        getIntConfigValue("", "PHOTO_PER_PAGE", 12),
			CommentPerPage:      getIntConfigValue("", "COMMENT_PER_PAGE", 15),
			UserPerPage:         getIntConfigValue("", "USER_PER_PAGE", 20),
			NotificationPerPage: getIntConfigValue("", "NOTIFICATION_PER_PAGE", 20),
			ManagePerPage:       getIntConfigValue("", "MANAGE_PER_PAGE", 20),
			SearchPerPage:       getIntConfigValue("", "SEARCH_PER_PAGE", 20),
		},
	}

	cfg.Mail.Enabled = cfg.Mail.Host != ""
	if cfg.Mail.Sender == "" && cfg.Mail.Username != "" {
		cfg.Mail.Sender = fmt.Sprintf("%s Admin <%s>", cfg.Server.Name, cfg.Mail.Username)
	}

	// Parse auth durations.
	accessDurationStr := getConfigValue(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h")
	accessDuration, err := time.ParseDuration(accessDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration %q: %w", accessDurationStr, err)
	}
	cfg.Auth.AccessTokenDuration = accessDuration

	actionDurationStr := getConfigValue(*actionTokenDuration, "ACTION_TOKEN_DURATION", "1h")
	actionDuration, err := time.ParseDuration(actionDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid action token duration %q: %w", actionDurationStr, err)
	}
	cfg.Auth.ActionTokenDuration = actionDuration

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	// Expand and validate data paths.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.expandUploadPath(); err != nil {
		return nil, fmt.Errorf("invalid upload path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("upload max size must be positive")
	}

	if c.Upload.PhotoSizeS <= 0 || c.Upload.PhotoSizeM <= c.Upload.PhotoSizeS {
		return fmt.Errorf("invalid photo sizes: small=%d medium=%d", c.Upload.PhotoSizeS, c.Upload.PhotoSizeM)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Albumy", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandUploadPath expands ~ and makes the path absolute.
// Defaults to {data}/uploads if not specified.
func (c *Config) expandUploadPath() error {
	defaultPath := filepath.Join(c.Data.BasePath, "uploads")

	expanded, err := expandPath(c.Data.UploadPath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.UploadPath = expanded
	return nil
}

// AllowedExt reports whether the file extension is accepted for upload.
func (c *Config) AllowedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.Upload.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
