// Package config loads token service options from YAML files, .env files
// and the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	auth "github.com/goliatone/go-auth-token"
	"github.com/goliatone/go-auth-token/repository"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvSigningKeyFactory = "AUTH_SIGNING_KEY_FACTORY"
	EnvSigningKey        = "AUTH_SIGNING_KEY"
	EnvSigningKeyID      = "AUTH_SIGNING_KEY_ID"
	EnvJWKS              = "AUTH_JWKS"
	EnvJWKSFile          = "AUTH_JWKS_FILE"
	EnvClusterID         = "AUTH_CLUSTER_ID"
	EnvTokenExpiration   = "AUTH_TOKEN_EXPIRATION"
	EnvLogLevel          = "AUTH_LOG_LEVEL"
	EnvDBDriver          = "AUTH_DB_DRIVER"
	EnvDBDSN             = "AUTH_DB_DSN"
	EnvRedisAddr         = "AUTH_REDIS_ADDR"
	EnvRedisPassword     = "AUTH_REDIS_PASSWORD"
	EnvRedisDB           = "AUTH_REDIS_DB"
	EnvRedisClusterKey   = "AUTH_REDIS_CLUSTER_KEY"
)

const (
	DefaultTokenExpiration = 24
	DefaultLogLevel        = "info"
	DefaultRedisClusterKey = "auth:cluster_id"
)

// Config aggregates runtime configuration for the token service.
type Config struct {
	SigningKeyFactory string         `yaml:"signing_key_factory"`
	SigningKey        string         `yaml:"signing_key"`
	SigningKeyID      string         `yaml:"signing_key_id"`
	JWKS              string         `yaml:"jwks"`
	JWKSFile          string         `yaml:"jwks_file"`
	ClusterID         string         `yaml:"cluster_id"`
	TokenExpiration   int            `yaml:"token_expiration"`
	LogLevel          string         `yaml:"log_level"`
	Database          DatabaseConfig `yaml:"database"`
	Redis             RedisConfig    `yaml:"redis"`
}

// DatabaseConfig selects the API token store and cluster table.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	ClusterKey string `yaml:"cluster_key"`
}

var _ auth.Config = (*Config)(nil)

// Load reads the given .env files (".env" when none are given; missing
// files are ignored) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read env file").
				WithMetadata(map[string]any{"file": file})
		}
	}

	cfg := &Config{}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg.finish()
}

// LoadFile reads a YAML file; environment variables override its values.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read config file").
			WithMetadata(map[string]any{"file": path})
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse config file").
			WithMetadata(map[string]any{"file": path})
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg.finish()
}

func (c *Config) applyEnv() error {
	setString(&c.SigningKeyFactory, EnvSigningKeyFactory)
	setString(&c.SigningKey, EnvSigningKey)
	setString(&c.SigningKeyID, EnvSigningKeyID)
	setString(&c.JWKS, EnvJWKS)
	setString(&c.JWKSFile, EnvJWKSFile)
	setString(&c.ClusterID, EnvClusterID)
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.Database.Driver, EnvDBDriver)
	setString(&c.Database.DSN, EnvDBDSN)
	setString(&c.Redis.Addr, EnvRedisAddr)
	setString(&c.Redis.Password, EnvRedisPassword)
	setString(&c.Redis.ClusterKey, EnvRedisClusterKey)

	if err := setInt(&c.TokenExpiration, EnvTokenExpiration); err != nil {
		return err
	}
	return setInt(&c.Redis.DB, EnvRedisDB)
}

func (c *Config) finish() (*Config, error) {
	if c.SigningKeyFactory == "" {
		c.SigningKeyFactory = auth.DefaultSigningKeyFactory
	}
	if c.TokenExpiration == 0 {
		c.TokenExpiration = DefaultTokenExpiration
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Redis.ClusterKey == "" {
		c.Redis.ClusterKey = DefaultRedisClusterKey
	}

	if c.JWKS == "" && c.JWKSFile != "" {
		raw, err := os.ReadFile(c.JWKSFile)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read JWK Set file").
				WithMetadata(map[string]any{"file": c.JWKSFile})
		}
		c.JWKS = string(raw)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the option combinations.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.SigningKeyFactory, validation.Required),
		validation.Field(&c.SigningKey, validation.By(c.requiredFor(auth.DefaultSigningKeyFactory))),
		validation.Field(&c.JWKS, validation.By(c.requiredFor(auth.JWKSSigningKeyFactory))),
		validation.Field(&c.TokenExpiration, validation.Min(0)),
		validation.Field(&c.Database, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Database,
				validation.Field(&c.Database.Driver, validation.By(supportedDriver)),
			)
		})),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid token configuration")
	}
	return nil
}

// supportedDriver accepts an empty driver, meaning no database.
func supportedDriver(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, ok := repository.NormalizeDriver(s); !ok {
		return errors.New("must be one of " + strings.Join(repository.SupportedDrivers(), ", "))
	}
	return nil
}

func (c *Config) requiredFor(factory string) validation.RuleFunc {
	return func(value any) error {
		if c.SigningKeyFactory != factory {
			return nil
		}
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New("is required by the " + factory + " signing key factory")
		}
		return nil
	}
}

func (c *Config) GetSigningKeyFactory() string { return c.SigningKeyFactory }
func (c *Config) GetSigningKey() string        { return c.SigningKey }
func (c *Config) GetSigningKeyID() string      { return c.SigningKeyID }
func (c *Config) GetJWKS() string              { return c.JWKS }
func (c *Config) GetClusterID() string         { return c.ClusterID }
func (c *Config) GetTokenExpiration() int      { return c.TokenExpiration }
func (c *Config) GetLogLevel() string          { return c.LogLevel }

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid integer in environment").
			WithMetadata(map[string]any{"key": key})
	}
	*dst = n
	return nil
}
