package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// EnvProduction is the APP_ENV value that selects the production credential bundle.
const EnvProduction = "production"

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → .env → environment variables
func Load() {
	cfg := defaultConfig

	configFile := os.Getenv("USERBOOK_CONFIG_FILE")
	if configFile == "" {
		configFile = "userbook.yaml"
	}

	if err := loadFile(configFile, &cfg); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	// .env never overrides variables already present in the process environment
	envFile := os.Getenv("USERBOOK_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load env file %s: %v", envFile, err)
	}

	applyEnvOverrides(&cfg)
	_loaded = &cfg

	active := _loaded.Common.Postgres.Active(_loaded.Common.App.Env)
	log.Printf("Final config - env: %s, DB Host: %s, DB User: %s, DB Database: %s",
		_loaded.Common.App.Env, active.Host, active.User, active.Database)
}

// LoadDefault installs the built-in defaults without reading files or the environment.
func LoadDefault() {
	cfg := defaultConfig
	_loaded = &cfg
}

// LoadFromFile loads configuration from a YAML file merged over the defaults
func LoadFromFile(filename string) error {
	cfg := defaultConfig
	if err := loadFile(filename, &cfg); err != nil {
		return err
	}
	_loaded = &cfg
	return nil
}

// LoadFromEnv loads configuration from environment variables merged over the defaults
func LoadFromEnv() {
	cfg := defaultConfig
	applyEnvOverrides(&cfg)
	_loaded = &cfg
}

func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		App: appConfig{
			Env: "development",
		},
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			MaxRequestSize: 1048576,
		},
		Postgres: postgresConfig{
			Default: credentials{
				Host:     "localhost",
				Database: "userbook",
				User:     "postgres",
				Password: "postgres",
			},
			Port:               5432,
			SSLMode:            "disable",
			ConnectTimeout:     10,
			MaxOpenConnections: 10,
		},
		Cors: corsConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"POST", "GET", "PUT", "DELETE"},
			AllowHeaders: []string{"Content-Type", "Access-Control-Allow-Headers", "Authorization", "X-Requested-With"},
			MaxAge:       3600,
		},
	},
}

type Common struct {
	App      appConfig      `yaml:"app"`
	Log      logConfig      `yaml:"log"`
	Http     httpConfig     `yaml:"http"`
	Postgres postgresConfig `yaml:"postgres"`
	Cors     corsConfig     `yaml:"cors"`
}

type appConfig struct {
	Env string `yaml:"env"` // "production" switches to the production credential bundle
}

// IsProduction reports whether the deployment flag is exactly "production".
func (a appConfig) IsProduction() bool {
	return a.Env == EnvProduction
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

type credentials struct {
	Host     string `yaml:"host"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type postgresConfig struct {
	Default            credentials `yaml:"default"`
	Production         credentials `yaml:"production"`
	Port               int         `yaml:"port"` // shared by both bundles
	SSLMode            string      `yaml:"sslmode"`
	ConnectTimeout     int         `yaml:"connect_timeout"` // seconds
	MaxOpenConnections int         `yaml:"max_open_connections"`
}

// Active returns the connection settings for the given deployment flag. Only the
// exact value "production" selects the production bundle.
func (c postgresConfig) Active(env string) ConnConfig {
	creds := c.Default
	if env == EnvProduction {
		creds = c.Production
	}

	port := c.Port
	if port <= 0 {
		port = 5432
	}

	return ConnConfig{
		Host:               creds.Host,
		Port:               port,
		Database:           creds.Database,
		User:               creds.User,
		Password:           creds.Password,
		SSLMode:            c.SSLMode,
		ConnectTimeout:     c.ConnectTimeout,
		MaxOpenConnections: c.MaxOpenConnections,
	}
}

// ConnConfig is a fully resolved set of PostgreSQL connection settings.
type ConnConfig struct {
	Host               string
	Port               int
	Database           string
	User               string
	Password           string
	SSLMode            string
	ConnectTimeout     int
	MaxOpenConnections int
}

// DSN renders the settings as a postgres:// URL. Userinfo and path are
// percent-encoded, so spaces and reserved characters survive a round trip.
func (c ConnConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return dsn.String()
}

type corsConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
	AllowMethods []string `yaml:"allow_methods"`
	AllowHeaders []string `yaml:"allow_headers"`
	MaxAge       int      `yaml:"max_age"` // seconds
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func App() appConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.App
}

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

func Cors() corsConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Cors
}

func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func applyEnvOverrides(cfg *Config) {
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Common.App.Env = env
	}

	if level := os.Getenv("USERBOOK_LOG_LEVEL"); level != "" {
		cfg.Common.Log.Level = level
	}
	if format := os.Getenv("USERBOOK_LOG_FORMAT"); format != "" {
		cfg.Common.Log.Format = format
	}

	if httpHost := os.Getenv("USERBOOK_HTTP_HOST"); httpHost != "" {
		cfg.Common.Http.Host = httpHost
	}
	if httpPort := os.Getenv("USERBOOK_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			cfg.Common.Http.Port = port
		}
	}

	// Default credential bundle
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Common.Postgres.Default.Host = dbHost
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Common.Postgres.Default.Database = dbName
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		cfg.Common.Postgres.Default.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		cfg.Common.Postgres.Default.Password = dbPassword
	}

	// Production credential bundle
	if dbHost := os.Getenv("AZURE_DB_HOST"); dbHost != "" {
		cfg.Common.Postgres.Production.Host = dbHost
	}
	if dbName := os.Getenv("AZURE_DB_NAME"); dbName != "" {
		cfg.Common.Postgres.Production.Database = dbName
	}
	if dbUser := os.Getenv("AZURE_DB_USER"); dbUser != "" {
		cfg.Common.Postgres.Production.User = dbUser
	}
	if dbPassword := os.Getenv("AZURE_DB_PASSWORD"); dbPassword != "" {
		cfg.Common.Postgres.Production.Password = dbPassword
	}

	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Common.Postgres.Port = port
		}
	}
	if sslMode := os.Getenv("DB_SSLMODE"); sslMode != "" {
		cfg.Common.Postgres.SSLMode = sslMode
	}
}
