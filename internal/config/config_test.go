package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolrecords/internal/database"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)

	assert.Equal(t, database.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, CounterBackendFile, cfg.Counter.Backend)
	assert.Equal(t, "props.cfg", cfg.Counter.Path)
	assert.Equal(t, "argon2id", cfg.Password.Algorithm)
	assert.Equal(t, 8, cfg.Password.MinLength)
	assert.Equal(t, "strict", cfg.Enrollment.Policy)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "records.yaml", `
database:
  driver: sqlite
  path: /var/lib/records/records.db
  query_timeout: 2s
counter:
  backend: redis
  redis_addr: localhost:6379
  redis_key: school:counts
password:
  algorithm: bcrypt
  bcrypt_cost: 10
enrollment:
  policy: permissive
log:
  level: debug
  development: true
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/var/lib/records/records.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, CounterBackendRedis, cfg.Counter.Backend)
	assert.Equal(t, "school:counts", cfg.Counter.RedisKey)
	assert.Equal(t, "bcrypt", cfg.Password.Algorithm)
	assert.Equal(t, 10, cfg.Password.BcryptCost)
	assert.Equal(t, "permissive", cfg.Enrollment.Policy)
	assert.True(t, cfg.Log.Development)
	// untouched sections keep their defaults
	assert.Equal(t, 8, cfg.Password.MinLength)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "records.yaml", "database:\n  host: db.internal\n")
	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("DB_QUERY_TIMEOUT", "750ms")
	t.Setenv("PASSWORD_MIN_LENGTH", "12")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, 750*time.Millisecond, cfg.Database.QueryTimeout)
	assert.Equal(t, 12, cfg.Password.MinLength)
	assert.True(t, cfg.Log.Development)
}

func TestDotEnvFile(t *testing.T) {
	env := writeFile(t, ".env", "COUNTER_PATH=/tmp/counts.cfg\nDB_NAME=from_dotenv\n")
	t.Setenv("DB_NAME", "from_process")
	t.Cleanup(func() { _ = os.Unsetenv("COUNTER_PATH") })

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/counts.cfg", cfg.Counter.Path)
	assert.Equal(t, "from_process", cfg.Database.DBName, "process environment wins over .env")
}

func TestMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestBadEnvValues(t *testing.T) {
	for key, value := range map[string]string{
		"REDIS_DB":         "zero",
		"BCRYPT_COST":      "high",
		"DB_QUERY_TIMEOUT": "soon",
		"LOG_DEVELOPMENT":  "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("", "")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Database.Driver = database.DriverSQLite; c.Database.Path = "" }},
		{"unknown counter backend", func(c *Config) { c.Counter.Backend = "etcd" }},
		{"redis without addr", func(c *Config) { c.Counter.Backend = CounterBackendRedis }},
		{"unknown algorithm", func(c *Config) { c.Password.Algorithm = "md5" }},
		{"bcrypt cost out of range", func(c *Config) { c.Password.Algorithm = "bcrypt"; c.Password.BcryptCost = 99 }},
		{"zero min length", func(c *Config) { c.Password.MinLength = 0 }},
		{"unknown policy", func(c *Config) { c.Enrollment.Policy = "lenient" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestMalformedYAML(t *testing.T) {
	path := writeFile(t, "records.yaml", "database: [unclosed")
	_, err := Load(path, "")
	assert.Error(t, err)
}
