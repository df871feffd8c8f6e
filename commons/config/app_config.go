package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"encore/internal/domain"

	yaml "go.yaml.in/yaml/v3"
)

const (
	// ConfigPathEnv overrides the config file location
	ConfigPathEnv     = "ENCORE_CONFIG"
	DefaultConfigPath = "config/scheduler.yaml"

	StoreDriverDynamoDB = "dynamodb"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// AppConfig is the whole service configuration as read from YAML
type AppConfig struct {
	Service   ServiceConfig           `yaml:"service"`
	Log       LogConfig               `yaml:"log"`
	Scheduler SchedulerConfig         `yaml:"scheduler"`
	Store     StoreConfig             `yaml:"store"`
	Redis     RedisConfig             `yaml:"redis"`
	Alerts    AlertsConfig            `yaml:"alerts"`
	ZooKeeper ZooKeeperConfig         `yaml:"zookeeper"`
	CRM       CRMConfig               `yaml:"crm"`
	Jobs      []*domain.JobDefinition `yaml:"jobs"`
}

type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Port    string `yaml:"port"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type SchedulerConfig struct {
	Timezone         string `yaml:"timezone"`
	SoftTimeout      string `yaml:"soft_timeout"`
	StoreTimeout     string `yaml:"store_timeout"`
	HistorySize      int    `yaml:"history_size"`
	HistoryRetention string `yaml:"history_retention"`

	location         *time.Location
	softTimeout      time.Duration
	storeTimeout     time.Duration
	historyRetention time.Duration
}

// Location is the operational timezone all schedules are evaluated in
func (c SchedulerConfig) Location() *time.Location { return c.location }

func (c SchedulerConfig) SoftTimeoutDuration() time.Duration { return c.softTimeout }

func (c SchedulerConfig) StoreTimeoutDuration() time.Duration { return c.storeTimeout }

func (c SchedulerConfig) HistoryRetentionDuration() time.Duration { return c.historyRetention }

type StoreConfig struct {
	Driver           string `yaml:"driver"`
	Region           string `yaml:"region"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	Table            string `yaml:"table"`
	SQLitePath       string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	// Addr empty means run history and chat state stay in process memory
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AlertRouteConfig struct {
	Rule    string `yaml:"rule"`
	Channel string `yaml:"channel"`
}

type AlertsConfig struct {
	MaxPerHour     int                `yaml:"max_per_hour"`
	DefaultChannel string             `yaml:"default_channel"`
	WebhookURL     string             `yaml:"webhook_url"`
	SendTimeout    string             `yaml:"send_timeout"`
	Routes         []AlertRouteConfig `yaml:"routes"`

	sendTimeout time.Duration
}

func (c AlertsConfig) SendTimeoutDuration() time.Duration { return c.sendTimeout }

type ZooKeeperConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Servers        []string `yaml:"servers"`
	SessionTimeout string   `yaml:"session_timeout"`
	ReloadPath     string   `yaml:"reload_path"`

	sessionTimeout time.Duration
}

func (c ZooKeeperConfig) SessionTimeoutDuration() time.Duration { return c.sessionTimeout }

type CRMConfig struct {
	QueueURL    string `yaml:"queue_url"`
	SQSEndpoint string `yaml:"sqs_endpoint"`
	Region      string `yaml:"region"`
}

// ConfigPath returns the config file location, honouring ENCORE_CONFIG
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnv)); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadAppConfig reads, defaults and validates the config file at path
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseAppConfig(data)
}

// ParseAppConfig decodes YAML, rejecting unknown keys
func ParseAppConfig(data []byte) (*AppConfig, error) {
	cfg := &AppConfig{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "encore-scheduler"
	}
	if c.Service.Version == "" {
		c.Service.Version = "1.0.0"
	}
	if c.Service.Port == "" {
		c.Service.Port = "8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "UTC"
	}
	if c.Scheduler.HistorySize <= 0 {
		c.Scheduler.HistorySize = 100
	}
	if c.Scheduler.HistoryRetention == "" {
		c.Scheduler.HistoryRetention = "720h"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverDynamoDB
	}
	if c.Store.Region == "" {
		c.Store.Region = "us-east-1"
	}
	if c.Store.Table == "" {
		c.Store.Table = "job_definitions"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/encore.db"
	}
	if c.Alerts.MaxPerHour == 0 {
		c.Alerts.MaxPerHour = 5
	}
	if c.Alerts.DefaultChannel == "" {
		c.Alerts.DefaultChannel = "#ops-alerts"
	}
	if c.ZooKeeper.ReloadPath == "" {
		c.ZooKeeper.ReloadPath = "/encore/scheduler/reload"
	}
	if len(c.ZooKeeper.Servers) == 0 {
		c.ZooKeeper.Servers = []string{"localhost:2181"}
	}
	if c.CRM.Region == "" {
		c.CRM.Region = c.Store.Region
	}
	for _, job := range c.Jobs {
		if job != nil && job.LastStatus == "" {
			job.LastStatus = domain.JobStatusNever
		}
	}
}

func (c *AppConfig) validate() error {
	var err error

	if c.Scheduler.location, err = time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	if c.Scheduler.softTimeout, err = parseDuration("scheduler.soft_timeout", c.Scheduler.SoftTimeout); err != nil {
		return err
	}
	if c.Scheduler.storeTimeout, err = parseDuration("scheduler.store_timeout", c.Scheduler.StoreTimeout); err != nil {
		return err
	}
	if c.Scheduler.historyRetention, err = parseDuration("scheduler.history_retention", c.Scheduler.HistoryRetention); err != nil {
		return err
	}
	if c.Alerts.sendTimeout, err = parseDuration("alerts.send_timeout", c.Alerts.SendTimeout); err != nil {
		return err
	}
	if c.ZooKeeper.sessionTimeout, err = parseDuration("zookeeper.session_timeout", c.ZooKeeper.SessionTimeout); err != nil {
		return err
	}
	if c.ZooKeeper.sessionTimeout == 0 {
		c.ZooKeeper.sessionTimeout = 30 * time.Second
	}

	if c.Alerts.MaxPerHour < 0 {
		return fmt.Errorf("alerts.max_per_hour must be positive, got %d", c.Alerts.MaxPerHour)
	}

	switch c.Store.Driver {
	case StoreDriverDynamoDB, StoreDriverSQLite, StoreDriverMemory:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}

	seen := make(map[string]struct{}, len(c.Jobs))
	for i, job := range c.Jobs {
		if job == nil || strings.TrimSpace(job.ID) == "" {
			return fmt.Errorf("jobs[%d]: id is required", i)
		}
		if _, dup := seen[job.ID]; dup {
			return fmt.Errorf("jobs[%d]: duplicate id %q", i, job.ID)
		}
		seen[job.ID] = struct{}{}
		if job.Name == "" {
			job.Name = job.ID
		}
	}

	return nil
}

func parseDuration(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
