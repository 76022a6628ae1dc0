package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/droptoken/etl/pkg/path"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	DefaultConfigFile        = "./configuration.yml"
	DefaultLogFile           = "./log.txt"
	DefaultLocalGamesCSVPath = "./game_data.csv"
	DefaultSslMode           = "disable"
	DefaultMaxPlayerPages    = 10000
	DefaultHTTPTimeout       = 60 * time.Second
	DefaultMaxColumn         = 4
)

// Config is the contents of configuration.yml.
type Config struct {
	GameDataCSVLocation string `yaml:"game_data_csv_location" json:"game_data_csv_location" validate:"required" jsonschema:"required,description=URL of the game moves CSV"`
	PlayerDataLocation  string `yaml:"player_data_location" json:"player_data_location" validate:"required" jsonschema:"required,description=URL of the paginated player endpoint"`

	DatabaseServer     string `yaml:"database_server" json:"database_server" validate:"required" jsonschema:"required"`
	DatabaseServerPort int    `yaml:"database_server_port" json:"database_server_port" validate:"required,gte=1,lte=65535" jsonschema:"required"`
	Database           string `yaml:"database" json:"database" validate:"required" jsonschema:"required"`
	DatabaseUser       string `yaml:"database_user" json:"database_user" validate:"required" jsonschema:"required"`
	DatabasePassword   string `yaml:"database_password" json:"database_password"`
	DatabaseSslMode    string `yaml:"database_ssl_mode,omitempty" json:"database_ssl_mode,omitempty" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full" jsonschema:"enum=disable,enum=allow,enum=prefer,enum=require,enum=verify-ca,enum=verify-full,default=disable"`

	LogFile           string        `yaml:"log_file,omitempty" json:"log_file,omitempty" jsonschema:"default=./log.txt"`
	LocalGamesCSVPath string        `yaml:"local_games_csv_path,omitempty" json:"local_games_csv_path,omitempty" jsonschema:"default=./game_data.csv"`
	MaxPlayerPages    int           `yaml:"max_player_pages,omitempty" json:"max_player_pages,omitempty" validate:"gte=0" jsonschema:"minimum=1,default=10000"`
	HTTPTimeout       time.Duration `yaml:"http_timeout,omitempty" json:"http_timeout,omitempty" jsonschema:"type=string,default=60s"`
	MaxColumn         *int          `yaml:"max_column,omitempty" json:"max_column,omitempty" validate:"omitempty,gte=0" jsonschema:"minimum=0,default=4"`
}

func LoadFromFile(fs afero.Fs, filePath string) (*Config, error) {
	var config Config

	err := path.ReadYaml(fs, filePath, &config)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, errors.Wrapf(formatValidationErrors(verrs), "invalid configuration in %s", filePath)
		}
		return nil, err
	}

	config.setDefaults()

	return &config, nil
}

func (c *Config) setDefaults() {
	if c.DatabaseSslMode == "" {
		c.DatabaseSslMode = DefaultSslMode
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.LocalGamesCSVPath == "" {
		c.LocalGamesCSVPath = DefaultLocalGamesCSVPath
	}
	if c.MaxPlayerPages == 0 {
		c.MaxPlayerPages = DefaultMaxPlayerPages
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.MaxColumn == nil {
		maxColumn := DefaultMaxColumn
		c.MaxColumn = &maxColumn
	}
}

// Validate returns an error listing every required key that is missing or out of range.
func (c *Config) Validate() error {
	err := path.ValidateStruct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return formatValidationErrors(verrs)
	}
	return err
}

func formatValidationErrors(verrs validator.ValidationErrors) error {
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("'%s' is required", fe.Field()))
		case "gte":
			problems = append(problems, fmt.Sprintf("'%s' must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value()))
		case "lte":
			problems = append(problems, fmt.Sprintf("'%s' must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value()))
		case "oneof":
			problems = append(problems, fmt.Sprintf("'%s' must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value()))
		default:
			problems = append(problems, fmt.Sprintf("'%s' failed the '%s' check", fe.Field(), fe.Tag()))
		}
	}

	return errors.New(strings.Join(problems, "; "))
}

func (c *Config) PostgresConfig() postgres.Config {
	return postgres.Config{
		Username: c.DatabaseUser,
		Password: c.DatabasePassword,
		Host:     c.DatabaseServer,
		Port:     c.DatabaseServerPort,
		Database: c.Database,
		SslMode:  c.DatabaseSslMode,
	}
}

func (c *Config) GetMaxColumn() int {
	if c.MaxColumn == nil {
		return DefaultMaxColumn
	}
	return *c.MaxColumn
}

// Persist writes a configuration file, used by `config init` to scaffold a new project.
func (c *Config) Persist(fs afero.Fs, filePath string) error {
	return path.WriteYaml(fs, filePath, c)
}

// Schema returns the JSON schema describing the configuration file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	return r.Reflect(&Config{})
}
