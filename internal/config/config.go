// Package config loads the records configuration: built-in defaults, then an
// optional YAML file, then an optional .env file, then the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"schoolrecords/internal/credential"
	"schoolrecords/internal/database"
	"schoolrecords/internal/enrollment"
)

const (
	CounterBackendFile  = "file"
	CounterBackendRedis = "redis"
)

type Config struct {
	Database   database.Config  `yaml:"database"`
	Counter    CounterConfig    `yaml:"counter"`
	Password   PasswordConfig   `yaml:"password"`
	Enrollment EnrollmentConfig `yaml:"enrollment"`
	Log        LogConfig        `yaml:"log"`
}

// CounterConfig selects where the identifier counter is persisted.
type CounterConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
}

type PasswordConfig struct {
	Algorithm  string `yaml:"algorithm"`
	BcryptCost int    `yaml:"bcrypt_cost"`
	MinLength  int    `yaml:"min_length"`
}

type EnrollmentConfig struct {
	// Policy is "strict" or "permissive".
	Policy string `yaml:"policy"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		Database: database.DefaultConfig(),
		Counter: CounterConfig{
			Backend:  CounterBackendFile,
			Path:     "props.cfg",
			RedisKey: "records:counts",
		},
		Password: PasswordConfig{
			Algorithm:  "argon2id",
			BcryptCost: credential.DefaultBcryptCost,
			MinLength:  8,
		},
		Enrollment: EnrollmentConfig{Policy: enrollment.Strict.String()},
		Log:        LogConfig{Level: "info"},
	}
}

// Load builds the configuration. A missing YAML file or .env file is not an
// error; either path may be empty to skip it. Variables already set in the
// environment win over the .env file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	db := &c.Database
	db.Driver = getEnv("DB_DRIVER", db.Driver)
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnv("DB_PORT", db.Port)
	db.User = getEnv("DB_USER", db.User)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.DBName = getEnv("DB_NAME", db.DBName)
	db.SSLMode = getEnv("DB_SSLMODE", db.SSLMode)
	db.Path = getEnv("DB_PATH", db.Path)

	c.Counter.Backend = getEnv("COUNTER_BACKEND", c.Counter.Backend)
	c.Counter.Path = getEnv("COUNTER_PATH", c.Counter.Path)
	c.Counter.RedisAddr = getEnv("REDIS_ADDR", c.Counter.RedisAddr)
	c.Counter.RedisPassword = getEnv("REDIS_PASSWORD", c.Counter.RedisPassword)
	c.Counter.RedisKey = getEnv("COUNTER_REDIS_KEY", c.Counter.RedisKey)

	c.Password.Algorithm = getEnv("PASSWORD_ALGORITHM", c.Password.Algorithm)
	c.Enrollment.Policy = getEnv("ENROLLMENT_POLICY", c.Enrollment.Policy)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	var err error
	if db.QueryTimeout, err = getDuration("DB_QUERY_TIMEOUT", db.QueryTimeout); err != nil {
		return err
	}
	if c.Counter.RedisDB, err = getInt("REDIS_DB", c.Counter.RedisDB); err != nil {
		return err
	}
	if c.Password.BcryptCost, err = getInt("BCRYPT_COST", c.Password.BcryptCost); err != nil {
		return err
	}
	if c.Password.MinLength, err = getInt("PASSWORD_MIN_LENGTH", c.Password.MinLength); err != nil {
		return err
	}
	if c.Log.Development, err = getBool("LOG_DEVELOPMENT", c.Log.Development); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case database.DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("config: postgres needs database.host and database.name")
		}
	case database.DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("config: sqlite needs database.path")
		}
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}

	switch c.Counter.Backend {
	case CounterBackendFile:
		if c.Counter.Path == "" {
			return errors.New("config: file counter needs counter.path")
		}
	case CounterBackendRedis:
		if c.Counter.RedisAddr == "" {
			return errors.New("config: redis counter needs counter.redis_addr")
		}
	default:
		return fmt.Errorf("config: unknown counter backend %q (valid: %s, %s)",
			c.Counter.Backend, CounterBackendFile, CounterBackendRedis)
	}

	if _, err := credential.New(c.Password.Algorithm, c.Password.BcryptCost); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Password.MinLength < 1 {
		return errors.New("config: password.min_length must be positive")
	}
	if _, err := enrollment.ParsePolicy(c.Enrollment.Policy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
