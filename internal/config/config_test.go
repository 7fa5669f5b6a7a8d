package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"api": { "serverUrl": "http://10.0.0.1:8080" },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "http://10.0.0.1:8080", viper.GetString("api.serverUrl"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, "http://localhost:5000", viper.GetString("api.serverUrl"))
	assert.Equal(t, ":5000", viper.GetString("server.listen"))
	assert.Equal(t, "./uploads", viper.GetString("server.uploadsDir"))
	assert.Equal(t, "gcps.csv", viper.GetString("server.csvPath"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "", viper.GetString("storage.sqlite.path"))
	assert.Equal(t, "gcptag", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "gcp_activity", viper.GetString("influx.bucket"))
	assert.Equal(t, "./influx_backup.lp.gz", viper.GetString("influx.backupPath"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "warn", viper.GetString("graylog.level"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "gcptag", viper.GetString("otel.serviceName"))
	assert.Equal(t, true, viper.GetBool("otel.insecure"))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{ "logLevel": `)

	err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetClientConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetClientConfig()
	assert.Equal(t, "http://localhost:5000", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, DisplayConfig{}, cfg.Display)
}

func TestGetClientConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"api": { "serverUrl": "http://store:9000", "timeout": "2s" },
		"display": { "left": 10, "top": 20, "width": 640, "height": 480 }
	}`)))

	cfg := GetClientConfig()
	assert.Equal(t, "http://store:9000", cfg.ServerURL)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, DisplayConfig{Left: 10, Top: 20, Width: 640, Height: 480}, cfg.Display)
}

func TestGetServerConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"server": { "listen": "127.0.0.1:8081", "uploadsDir": "/srv/uploads", "csvPath": "/srv/gcps.csv" }
	}`)))

	cfg := GetServerConfig()
	assert.Equal(t, "127.0.0.1:8081", cfg.Listen)
	assert.Equal(t, "/srv/uploads", cfg.UploadsDir)
	assert.Equal(t, "/srv/gcps.csv", cfg.CSVPath)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{
		"storage": { "type": "sqlite", "sqlite": { "path": "/tmp/gcptag.db" } }
	}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "sqlite", cfg.Type)
	assert.Equal(t, "/tmp/gcptag.db", cfg.SQLite.Path)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "gcptag", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
}
