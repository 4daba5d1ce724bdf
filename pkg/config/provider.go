// Package config loads the precipmeter configuration.
package config

import "time"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStations() ([]StationData, error)
	GetStation(name string) (StationData, error)
	GetStorageConfig() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Log      LogData       `mapstructure:"log" json:"log"`
	Stations []StationData `mapstructure:"stations" json:"stations"`
	Storage  StorageData   `mapstructure:"storage" json:"storage,omitempty"`
	Report   ReportData    `mapstructure:"report" json:"report"`
	Server   ServerData    `mapstructure:"server" json:"server"`
	Squall   SquallData    `mapstructure:"squall" json:"squall"`
}

// LogData controls log output
type LogData struct {
	Debug      bool   `mapstructure:"debug" json:"debug"`
	File       string `mapstructure:"file" json:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max-size" json:"max_size,omitempty"`
	MaxBackups int    `mapstructure:"max-backups" json:"max_backups,omitempty"`
	MaxAgeDays int    `mapstructure:"max-age" json:"max_age,omitempty"`
}

// StationData holds the configuration of one disdrometer
type StationData struct {
	Name    string `mapstructure:"name" json:"name"`
	Enabled *bool  `mapstructure:"enabled" json:"enabled,omitempty"`

	// Sensor model and telegram layout
	Model      string `mapstructure:"model" json:"model"`
	Telegram   string `mapstructure:"telegram" json:"telegram,omitempty"`
	Variant    int    `mapstructure:"variant" json:"variant,omitempty"`
	FieldTable string `mapstructure:"field-table" json:"field_table,omitempty"`
	Prefix     string `mapstructure:"prefix" json:"prefix,omitempty"`

	// Connection
	Connection   string `mapstructure:"connection" json:"connection"`
	Host         string `mapstructure:"host" json:"host,omitempty"`
	Port         int    `mapstructure:"port" json:"port,omitempty"`
	SerialDevice string `mapstructure:"serial-device" json:"serial_device,omitempty"`
	Baud         int    `mapstructure:"baud" json:"baud,omitempty"`

	// Present weather window, in seconds
	DeviceInterval    int64 `mapstructure:"device-interval" json:"device_interval,omitempty"`
	ErrorLimit        int64 `mapstructure:"error-limit" json:"error_limit,omitempty"`
	InterruptionLimit int64 `mapstructure:"interruption-limit" json:"interruption_limit,omitempty"`
	Span              int64 `mapstructure:"span" json:"span,omitempty"`

	StaleTimeout time.Duration `mapstructure:"stale-timeout" json:"stale_timeout,omitempty"`

	// StateDir holds the episode database and the recovery file.
	StateDir string `mapstructure:"state-dir" json:"state_dir,omitempty"`
}

// IsEnabled reports whether the station should run. Stations are enabled
// unless switched off explicitly.
func (s StationData) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// StorageData holds the configuration for the report storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `mapstructure:"timescaledb" json:"timescaledb,omitempty"`
	Kafka       *KafkaData       `mapstructure:"kafka" json:"kafka,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `mapstructure:"connection-string" json:"connection_string"`
}

type KafkaData struct {
	Brokers []string `mapstructure:"brokers" json:"brokers"`
	Topic   string   `mapstructure:"topic" json:"topic"`
}

// ReportData configures the report interval
type ReportData struct {
	Interval time.Duration `mapstructure:"interval" json:"interval"`
}

// ServerData configures the listener shared by the REST and gRPC servers
type ServerData struct {
	ListenAddr string `mapstructure:"listen-addr" json:"listen_addr,omitempty"`
	Port       int    `mapstructure:"port" json:"port"`
}

// SquallData holds the squall thresholds in m/s
type SquallData struct {
	MinSpeed        float64 `mapstructure:"min-speed" json:"min_speed"`
	MinGustIncrease float64 `mapstructure:"min-gust-increase" json:"min_gust_increase"`
}
