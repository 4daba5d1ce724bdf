package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultReportInterval  = 5 * time.Minute
	defaultServerPort      = 8080
	defaultLogMaxSizeMB    = 100
	defaultLogMaxBackups   = 3
	defaultLogMaxAgeDays   = 7
	defaultSquallMinSpeed  = 10.5
	defaultSquallGustDelta = 8.0

	// Environment variable prefix
	envPrefix = "PRECIPMETER"
)

// ViperProvider implements ConfigProvider for YAML configuration files,
// with environment overrides such as PRECIPMETER_REPORT_INTERVAL.
type ViperProvider struct {
	filename string
	config   *ConfigData
}

// NewViperProvider creates a new provider for the named file
func NewViperProvider(filename string) *ViperProvider {
	return &ViperProvider{filename: filename}
}

// LoadConfig reads, defaults and validates the configuration. The result
// is cached.
func (p *ViperProvider) LoadConfig() (*ConfigData, error) {
	if p.config != nil {
		return p.config, nil
	}

	v := viper.New()
	configureViper(v, p.filename)
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg ConfigData
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	p.config = &cfg
	return p.config, nil
}

// GetStations returns all configured stations, enabled or not
func (p *ViperProvider) GetStations() ([]StationData, error) {
	cfg, err := p.LoadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Stations, nil
}

// GetStation returns the named station
func (p *ViperProvider) GetStation(name string) (StationData, error) {
	stations, err := p.GetStations()
	if err != nil {
		return StationData{}, err
	}
	for _, s := range stations {
		if s.Name == name {
			return s, nil
		}
	}
	return StationData{}, fmt.Errorf("%w: %s", ErrStationNotFound, name)
}

// GetStorageConfig returns the storage section
func (p *ViperProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := p.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// IsReadOnly returns true; configuration files are never written
func (p *ViperProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for file-based configuration
func (p *ViperProvider) Close() error {
	return nil
}

func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("precipmeter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/precipmeter")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.debug", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max-size", defaultLogMaxSizeMB)
	v.SetDefault("log.max-backups", defaultLogMaxBackups)
	v.SetDefault("log.max-age", defaultLogMaxAgeDays)
	v.SetDefault("report.interval", defaultReportInterval)
	v.SetDefault("server.listen-addr", "")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("squall.min-speed", defaultSquallMinSpeed)
	v.SetDefault("squall.min-gust-increase", defaultSquallGustDelta)
}

func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *ConfigData) error {
	if len(cfg.Stations) == 0 {
		return ErrNoStations
	}

	seen := make(map[string]bool, len(cfg.Stations))
	for i, s := range cfg.Stations {
		if s.Name == "" {
			return fmt.Errorf("%w: station #%d", ErrStationNameMissing, i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStation, s.Name)
		}
		seen[s.Name] = true

		if err := validateConnection(s); err != nil {
			return fmt.Errorf("station %s: %w", s.Name, err)
		}
	}

	if k := cfg.Storage.Kafka; k != nil {
		if len(k.Brokers) == 0 {
			return ErrEmptyKafkaBrokers
		}
		if k.Topic == "" {
			return ErrEmptyKafkaTopic
		}
	}

	if cfg.Report.Interval <= 0 {
		return ErrInvalidReportInterval
	}
	return nil
}

func validateConnection(s StationData) error {
	switch strings.ToLower(s.Connection) {
	case "tcp":
		if s.Host == "" || s.Port == 0 {
			return ErrMissingTransportTarget
		}
	case "udp":
		if s.Port == 0 {
			return ErrMissingTransportTarget
		}
	case "usb", "serial":
		if s.SerialDevice == "" {
			return ErrMissingTransportTarget
		}
	case "", "none", "simulator":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownConnection, s.Connection)
	}
	return nil
}
