package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "INVOICERECON"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Parser    ParserConfig
	Reconcile ReconcileConfig
	Upload    UploadConfig
	Storage   StorageConfig
	Export    ExportConfig
	CORS      CORSConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ParserProviderConfig holds settings for a single LLM extraction provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds extraction provider settings. Providers after the
// primary are fallbacks, tried in order when the one before is rate limited.
type ParserConfig struct {
	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
	Tertiary  ParserProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary provider config.
func (p *ParserConfig) PrimaryConfig() *ParserProviderConfig {
	return &p.Primary
}

// SecondaryConfig returns the secondary parser provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary parser provider config, or nil if not configured.
func (p *ParserConfig) TertiaryConfig() *ParserProviderConfig {
	if p.Tertiary.Provider != "" {
		return &p.Tertiary
	}
	return nil
}

// ReconcileConfig selects the check mode and tolerance. An empty
// tolerance means the mode default.
type ReconcileConfig struct {
	Mode      string `mapstructure:"mode"`
	Tolerance string `mapstructure:"tolerance"`
}

// UploadConfig bounds what a single upload request may carry.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
	MaxFiles      int   `mapstructure:"max_files"`
}

// MaxFileSizeBytes returns the per-file limit in bytes.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// StorageConfig holds S3 settings for published artifacts. Publishing is
// disabled when Bucket is empty.
type StorageConfig struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Prefix        string `mapstructure:"prefix"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// Enabled reports whether a bucket is configured.
func (s *StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// ExportConfig controls artifact rendering.
type ExportConfig struct {
	// CSVBOM prefixes CSV exports with a UTF-8 byte order mark so Excel
	// detects the encoding.
	CSVBOM bool `mapstructure:"csv_bom"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the
// INVOICERECON_ prefix.
func Load() (*Config, error) {
	return load("")
}

// LoadFile reads a YAML, JSON or TOML config file and overlays environment
// variables on top of it. An empty path behaves like Load.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it unless the server port is set explicitly.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Reconcile = ReconcileConfig{
		Mode:      v.GetString("reconcile.mode"),
		Tolerance: v.GetString("reconcile.tolerance"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxFiles:      v.GetInt("upload.max_files"),
	}
	cfg.Storage = StorageConfig{
		Region:        v.GetString("storage.region"),
		Bucket:        v.GetString("storage.bucket"),
		Endpoint:      v.GetString("storage.endpoint"),
		AccessKey:     v.GetString("storage.access_key"),
		SecretKey:     v.GetString("storage.secret_key"),
		Prefix:        v.GetString("storage.prefix"),
		PresignExpiry: v.GetInt64("storage.presign_expiry"),
	}
	cfg.Export = ExportConfig{CSVBOM: v.GetBool("export.csv_bom")}
	cfg.CORS = CORSConfig{AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins"))}
	cfg.Parser = ParserConfig{
		Primary:   providerConfig(v, "parser.primary"),
		Secondary: providerConfig(v, "parser.secondary"),
		Tertiary:  providerConfig(v, "parser.tertiary"),
	}

	if cfg.Upload.MaxFiles <= 0 {
		return nil, fmt.Errorf("upload.max_files must be positive, got %d", cfg.Upload.MaxFiles)
	}
	if cfg.Upload.MaxFileSizeMB <= 0 {
		return nil, fmt.Errorf("upload.max_file_size_mb must be positive, got %d", cfg.Upload.MaxFileSizeMB)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Reconciliation defaults
	v.SetDefault("reconcile.mode", "basic")
	v.SetDefault("reconcile.tolerance", "")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 20)
	v.SetDefault("upload.max_files", 50)

	// Storage defaults (publishing disabled until a bucket is set)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.prefix", "sessions")
	v.SetDefault("storage.presign_expiry", 3600)

	// Export defaults
	v.SetDefault("export.csv_bom", true)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Parser defaults
	v.SetDefault("parser.primary.provider", "gemini")
	v.SetDefault("parser.primary.default_model", "gemini-1.5-flash-002")
	for _, p := range []string{"parser.primary", "parser.secondary", "parser.tertiary"} {
		v.SetDefault(p+".api_key", "")
		v.SetDefault(p+".max_retries", 2)
		v.SetDefault(p+".timeout_secs", 120)
	}
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.tertiary.provider", "")
}

// bindEnv binds nested keys explicitly so they resolve even when no
// default or config file mentions them.
func bindEnv(v *viper.Viper) {
	keys := []string{
		"server.port", "server.read_timeout", "server.write_timeout", "server.environment",
		"log.level", "log.format",
		"reconcile.mode", "reconcile.tolerance",
		"upload.max_file_size_mb", "upload.max_files",
		"storage.region", "storage.bucket", "storage.endpoint", "storage.access_key",
		"storage.secret_key", "storage.prefix", "storage.presign_expiry",
		"export.csv_bom", "cors.allowed_origins",
	}
	for _, p := range []string{"parser.primary", "parser.secondary", "parser.tertiary"} {
		for _, f := range []string{"provider", "api_key", "default_model", "max_retries", "timeout_secs"} {
			keys = append(keys, p+"."+f)
		}
	}
	for _, key := range keys {
		env := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, env)
	}
}

func providerConfig(v *viper.Viper, prefix string) ParserProviderConfig {
	return ParserProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList accepts both a list and a comma-separated string, which is
// how origins arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
