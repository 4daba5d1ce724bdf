package config

import "errors"

var (
	ErrConfigFileMissing      = errors.New("config file not found")
	ErrReadingConfigFile      = errors.New("failed to read config file")
	ErrUnmarshallingConfig    = errors.New("failed to unmarshal config")
	ErrNoStations             = errors.New("no stations configured")
	ErrStationNameMissing     = errors.New("station name cannot be empty")
	ErrDuplicateStation       = errors.New("duplicate station name")
	ErrStationNotFound        = errors.New("station not found")
	ErrUnknownConnection      = errors.New("unknown connection type")
	ErrMissingTransportTarget = errors.New("connection needs a host, port or serial device")
	ErrEmptyKafkaBrokers      = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic        = errors.New("kafka topic cannot be empty")
	ErrInvalidReportInterval  = errors.New("report interval must be positive")
)
