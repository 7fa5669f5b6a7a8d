package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file searched for in the config directory.
const FileName = "gcptag.cfg.json"

// ClientConfig holds the operator console settings
type ClientConfig struct {
	ServerURL string        `json:"serverUrl" mapstructure:"serverUrl"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	Display   DisplayConfig `json:"display" mapstructure:"display"`
}

// DisplayConfig is the on-screen rectangle the current image is rendered into.
// Width and Height of zero mean the size is unknown.
type DisplayConfig struct {
	Left   float64 `json:"left" mapstructure:"left"`
	Top    float64 `json:"top" mapstructure:"top"`
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// ServerConfig holds the companion store settings
type ServerConfig struct {
	Listen     string `json:"listen" mapstructure:"listen"`
	UploadsDir string `json:"uploadsDir" mapstructure:"uploadsDir"`
	CSVPath    string `json:"csvPath" mapstructure:"csvPath"`
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// SQLiteConfig holds SQLite backend settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A missing
// file is not an error; the defaults apply.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.timeout", "30s")

	viper.SetDefault("display.left", 0)
	viper.SetDefault("display.top", 0)
	viper.SetDefault("display.width", 0)
	viper.SetDefault("display.height", 0)

	viper.SetDefault("export.path", "gcps.csv")

	viper.SetDefault("server.listen", ":5000")
	viper.SetDefault("server.uploadsDir", "./uploads")
	viper.SetDefault("server.csvPath", "gcps.csv")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "gcptag")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "gcptag")
	viper.SetDefault("influx.bucket", "gcp_activity")
	viper.SetDefault("influx.backupPath", "./influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
	viper.SetDefault("graylog.level", "warn")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "gcptag")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetClientConfig returns the console configuration
func GetClientConfig() ClientConfig {
	return ClientConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		Timeout:   viper.GetDuration("api.timeout"),
		Display: DisplayConfig{
			Left:   viper.GetFloat64("display.left"),
			Top:    viper.GetFloat64("display.top"),
			Width:  viper.GetFloat64("display.width"),
			Height: viper.GetFloat64("display.height"),
		},
	}
}

// GetServerConfig returns the companion store configuration
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Listen:     viper.GetString("server.listen"),
		UploadsDir: viper.GetString("server.uploadsDir"),
		CSVPath:    viper.GetString("server.csvPath"),
	}
}

// GetStorageConfig returns the storage configuration
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry configuration
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
