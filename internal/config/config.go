package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the runtime settings of the catalog layer.
// Priority: flags > environment > JSON config file > defaults.
type Config struct {
	TMDBAPIKey          string        `env:"TMDB_API_KEY" json:"tmdb_api_key"`
	TMDBBaseURL         string        `env:"TMDB_BASE_URL" json:"tmdb_base_url" validate:"url"`
	TMDBLanguage        string        `env:"TMDB_LANGUAGE" json:"tmdb_language"`
	TMDBTimeout         time.Duration `env:"TMDB_TIMEOUT" json:"tmdb_timeout"`
	LogLevel            string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	BoltPath            string        `env:"BOLT_PATH" json:"bolt_path" validate:"filepath"`
	SQLitePath          string        `env:"SQLITE_PATH" json:"sqlite_path" validate:"filepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout"`
	BcryptCost          int           `env:"BCRYPT_COST" json:"bcrypt_cost" validate:"bcryptcost"`
	ConfigFile          string        `env:"CONFIG" json:"-"`
}

var defaultConfig = Config{
	TMDBBaseURL:         "https://api.themoviedb.org/3",
	TMDBLanguage:        "pt-BR",
	TMDBTimeout:         0,
	LogLevel:            "info",
	DBFileName:          "",
	BoltPath:            "",
	DatabaseDSN:         "",
	DBConnectionTimeout: 10 * time.Second,
	BcryptCost:          bcrypt.DefaultCost,
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	flagSet             *flag.FlagSet
	args                []string
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses the given arguments instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warn":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func validateBcryptCost(fieldLevel validator.FieldLevel) bool {
	cost := int(fieldLevel.Field().Int())

	return cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("bcryptcost", validateBcryptCost)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

func applyDefaults(values *Config, defaults Config) {
	if values.TMDBBaseURL == "" {
		values.TMDBBaseURL = defaults.TMDBBaseURL
	}
	if values.TMDBLanguage == "" {
		values.TMDBLanguage = defaults.TMDBLanguage
	}
	if values.TMDBTimeout == 0 {
		values.TMDBTimeout = defaults.TMDBTimeout
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if values.BcryptCost == 0 {
		values.BcryptCost = defaults.BcryptCost
	}
}

// overlay copies every non-zero field of src onto dst.
func overlay(dst *Config, src Config) {
	if src.TMDBAPIKey != "" {
		dst.TMDBAPIKey = src.TMDBAPIKey
	}
	if src.TMDBBaseURL != "" {
		dst.TMDBBaseURL = src.TMDBBaseURL
	}
	if src.TMDBLanguage != "" {
		dst.TMDBLanguage = src.TMDBLanguage
	}
	if src.TMDBTimeout != 0 {
		dst.TMDBTimeout = src.TMDBTimeout
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.DBFileName != "" {
		dst.DBFileName = src.DBFileName
	}
	if src.BoltPath != "" {
		dst.BoltPath = src.BoltPath
	}
	if src.SQLitePath != "" {
		dst.SQLitePath = src.SQLitePath
	}
	if src.DatabaseDSN != "" {
		dst.DatabaseDSN = src.DatabaseDSN
	}
	if src.DBConnectionTimeout != 0 {
		dst.DBConnectionTimeout = src.DBConnectionTimeout
	}
	if src.BcryptCost != 0 {
		dst.BcryptCost = src.BcryptCost
	}
}

func loadJSONFile(fileName string) (Config, error) {
	var fromJSON Config
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fromJSON, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		return fromJSON, fmt.Errorf("parse config file: %w", err)
	}

	return fromJSON, nil
}

func (c *Config) parseFlags(options *initOptions) (string, error) {
	flagSet := options.flagSet
	if flagSet == nil {
		flagSet = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	}
	args := options.args
	if args == nil {
		args = os.Args[1:]
	}

	var configFile string
	flagSet.StringVar(&configFile, "c", "", "JSON config file name")
	flagSet.StringVar(&c.TMDBAPIKey, "k", c.TMDBAPIKey, "TMDB API key")
	flagSet.StringVar(&c.TMDBBaseURL, "u", c.TMDBBaseURL, "TMDB API base URL")
	flagSet.StringVar(&c.TMDBLanguage, "lang", c.TMDBLanguage, "TMDB response language")
	flagSet.StringVar(&c.LogLevel, "l", c.LogLevel, "logger level")
	flagSet.StringVar(&c.DBFileName, "f", c.DBFileName, "JSON file name with the local storage")
	flagSet.StringVar(&c.BoltPath, "b", c.BoltPath, "bbolt file name with the local storage")
	flagSet.StringVar(&c.SQLitePath, "s", c.SQLitePath, "SQLite file name with the local storage")
	flagSet.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "A string with the database connection details")

	if err := flagSet.Parse(args); err != nil {
		return "", err
	}

	return configFile, nil
}

// New builds the configuration from defaults, the JSON config file named by
// CONFIG (or -c), the environment and the command line flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	// Flags are parsed into a scratch copy first, only to learn -c.
	var fromFlags Config
	configFile := valuesFromEnv.ConfigFile
	if !options.disableFlagsParsing {
		flagConfigFile, err := fromFlags.parseFlags(options)
		if err != nil {
			return nil, err
		}
		if flagConfigFile != "" {
			configFile = flagConfigFile
		}
	}

	values := Config{}
	if configFile != "" {
		fromJSON, err := loadJSONFile(configFile)
		if err != nil {
			return nil, err
		}
		overlay(&values, fromJSON)
	}
	overlay(&values, valuesFromEnv)
	overlay(&values, fromFlags)
	values.ConfigFile = configFile

	applyDefaults(&values, defaultConfig)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}
