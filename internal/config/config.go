package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"lounge/internal/models"
	"lounge/internal/schedule"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Business   BusinessConfig   `yaml:"business"`
	Hours      HoursConfig      `yaml:"hours"`
	Draft      DraftConfig      `yaml:"draft"`
	Status     StatusConfig     `yaml:"status"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	API        APIConfig        `yaml:"api"`
	Notify     NotifyConfig     `yaml:"notify"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// BusinessConfig is the static contact block rendered into outgoing
// booking messages.
type BusinessConfig struct {
	Name         string `yaml:"name"`
	Address      string `yaml:"address"`
	Phone        string `yaml:"phone"`
	BookingEmail string `yaml:"booking_email"`
}

// DayHours is one weekday's posted hours. Open/Close are "HH:MM"
// wall-clock strings; Closed overrides both.
type DayHours struct {
	Closed bool   `yaml:"closed"`
	Open   string `yaml:"open"`
	Close  string `yaml:"close"`
}

type HoursConfig struct {
	Sunday    DayHours `yaml:"sunday"`
	Monday    DayHours `yaml:"monday"`
	Tuesday   DayHours `yaml:"tuesday"`
	Wednesday DayHours `yaml:"wednesday"`
	Thursday  DayHours `yaml:"thursday"`
	Friday    DayHours `yaml:"friday"`
	Saturday  DayHours `yaml:"saturday"`
}

type DraftConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	TTLHours  int    `yaml:"ttl_hours"`
}

type StatusConfig struct {
	RefreshSeconds int `yaml:"refresh_seconds"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type NotifyConfig struct {
	TelegramEnabled bool   `yaml:"telegram_enabled"`
	BotToken        string `yaml:"bot_token"`
	ChatID          int64  `yaml:"chat_id"`
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

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment already set wins.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before unmarshaling.
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
	if c.Business.Name == "" {
		return errors.New("business name is required")
	}
	if c.Notify.TelegramEnabled && c.Notify.BotToken == "" {
		return errors.New("notify.bot_token is required when telegram notifications are enabled")
	}
	if c.Notify.TelegramEnabled && c.Notify.ChatID == 0 {
		return errors.New("notify.chat_id is required when telegram notifications are enabled")
	}

	// Reject a malformed schedule here so queries never see one.
	if _, err := c.Hours.Week(); err != nil {
		return fmt.Errorf("invalid hours: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Draft.KeyPrefix == "" {
		c.Draft.KeyPrefix = "booking_draft"
	}
	if c.Draft.TTLHours == 0 {
		c.Draft.TTLHours = models.DefaultDraftTTLHours
	}
	if c.Status.RefreshSeconds == 0 {
		c.Status.RefreshSeconds = models.DefaultStatusRefresh
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

// Week parses the configured hours into a validated weekly schedule.
func (h HoursConfig) Week() (*schedule.Week, error) {
	entries := map[time.Weekday]DayHours{
		time.Sunday:    h.Sunday,
		time.Monday:    h.Monday,
		time.Tuesday:   h.Tuesday,
		time.Wednesday: h.Wednesday,
		time.Thursday:  h.Thursday,
		time.Friday:    h.Friday,
		time.Saturday:  h.Saturday,
	}

	days := make(map[time.Weekday]schedule.Window)
	for day, entry := range entries {
		if entry.Closed {
			continue
		}
		if entry.Open == "" && entry.Close == "" {
			// Day not mentioned at all: treated as closed.
			continue
		}
		open, err := schedule.ParseClock(entry.Open)
		if err != nil {
			return nil, fmt.Errorf("%s open: %w", day, err)
		}
		closeMin, err := schedule.ParseClock(entry.Close)
		if err != nil {
			return nil, fmt.Errorf("%s close: %w", day, err)
		}
		days[day] = schedule.Window{Open: open, Close: closeMin}
	}

	return schedule.NewWeek(days)
}

// DraftTTL returns the configured draft retention as a duration.
func (c *Config) DraftTTL() time.Duration {
	return time.Duration(c.Draft.TTLHours) * time.Hour
}

// RefreshInterval returns how often the status sampler re-reads the
// clock.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Status.RefreshSeconds) * time.Second
}
