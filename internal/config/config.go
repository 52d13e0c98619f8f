package config

import (
	"errors"
	"fmt"
	"os"

	"deskbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Session    SessionConfig    `yaml:"session"`
	Admin      AdminConfig      `yaml:"admin"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SessionConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// AdminConfig describes the seeded administrator account. The admin logs in
// through the regular authentication path; only role resolution treats the
// student id specially.
type AdminConfig struct {
	StudentID string `yaml:"student_id"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Admin.StudentID == "" || c.Admin.Password == "" {
		return errors.New("admin account credentials are required")
	}

	return nil
}

// ValidateFloorPlan checks the desk layout loaded from desks.yaml.
func ValidateFloorPlan(plan *models.FloorPlan) error {
	seen := make(map[int]bool)
	for _, row := range plan.Rows {
		for _, desk := range row {
			if desk <= 0 {
				return fmt.Errorf("desk number %d is invalid", desk)
			}
			if seen[desk] {
				return fmt.Errorf("duplicate desk number found: %d", desk)
			}
			seen[desk] = true
		}
	}
	if len(seen) == 0 {
		return errors.New("floor plan has no desks")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = models.DefaultSessionTTL
	}
	if c.App.Timezone == "" {
		c.App.Timezone = models.DefaultTimezone
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Admin.Name == "" {
		c.Admin.Name = "Administrator"
	}
	if c.API.RateLimit.Burst == 0 && c.API.RateLimit.RPS > 0 {
		c.API.RateLimit.Burst = 5
	}
}
