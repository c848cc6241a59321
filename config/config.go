package config

import (
	_ "embed"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultColumnsSeed is the hand-maintained classification of the Seattle
// listings columns.
//
//go:embed seattle_listings_columns.yaml
var DefaultColumnsSeed []byte

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DataDir string `envconfig:"DATA_DIR" default:"data" validate:"required"`
	City    string `envconfig:"CITY" default:"seattle" validate:"oneof=seattle"`

	// ColumnsSeed overrides the embedded classification seed when set.
	ColumnsSeed      string `envconfig:"COLUMNS_SEED"`
	SaveIntermediate bool   `envconfig:"SAVE_INTERMEDIATE" default:"true"`

	LogMode    string `envconfig:"LOG_MODE" default:"dev" validate:"oneof=dev prod production"`
	ReportPath string `envconfig:"REPORT_PATH"`
	PlotDir    string `envconfig:"PLOT_DIR"`
	CSVExport  string `envconfig:"CSV_EXPORT_DIR"`

	PostgresExport   bool   `envconfig:"POSTGRES_EXPORT" default:"false"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost" validate:"required_if=PostgresExport true"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432" validate:"omitempty,numeric"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"airbnb"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"airbnb123"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"airbnb_db"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

// Load reads the .env file, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
