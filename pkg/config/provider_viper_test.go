package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "precipmeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const sampleConfig = `
stations:
  - name: roof
    model: ott-parsivel2
    connection: tcp
    host: 192.0.2.10
    port: 4001
    prefix: ott
    stale-timeout: 2m
    state-dir: /var/lib/precipmeter
  - name: garden
    enabled: false
    model: thies
    variant: 5
    connection: usb
    serial-device: /dev/ttyUSB0
    baud: 9600
storage:
  kafka:
    brokers: [localhost:9092]
    topic: present-weather
server:
  port: 9000
`

func TestLoadConfig(t *testing.T) {
	p := NewViperProvider(writeConfig(t, sampleConfig))
	cfg, err := p.LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Stations, 2)
	roof := cfg.Stations[0]
	assert.Equal(t, "roof", roof.Name)
	assert.Equal(t, 4001, roof.Port)
	assert.Equal(t, 2*time.Minute, roof.StaleTimeout)
	assert.True(t, roof.IsEnabled())
	assert.False(t, cfg.Stations[1].IsEnabled())
	assert.Equal(t, 5, cfg.Stations[1].Variant)

	require.NotNil(t, cfg.Storage.Kafka)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Storage.Kafka.Brokers)
	assert.Nil(t, cfg.Storage.TimescaleDB)

	// Defaults
	assert.Equal(t, 5*time.Minute, cfg.Report.Interval)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10.5, cfg.Squall.MinSpeed)
	assert.Equal(t, 8.0, cfg.Squall.MinGustIncrease)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)

	s, err := p.GetStation("garden")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", s.SerialDevice)

	_, err = p.GetStation("attic")
	assert.ErrorIs(t, err, ErrStationNotFound)

	storage, err := p.GetStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, "present-weather", storage.Kafka.Topic)
	assert.True(t, p.IsReadOnly())
	assert.NoError(t, p.Close())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PRECIPMETER_REPORT_INTERVAL", "1m")
	t.Setenv("PRECIPMETER_SERVER_PORT", "7000")

	cfg, err := NewViperProvider(writeConfig(t, sampleConfig)).LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Report.Interval)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "no stations",
			body: "server:\n  port: 80\n",
			want: ErrNoStations,
		},
		{
			name: "unnamed station",
			body: "stations:\n  - connection: simulator\n",
			want: ErrStationNameMissing,
		},
		{
			name: "duplicate station",
			body: "stations:\n  - name: a\n  - name: a\n",
			want: ErrDuplicateStation,
		},
		{
			name: "tcp without host",
			body: "stations:\n  - name: a\n    connection: tcp\n    port: 4001\n",
			want: ErrMissingTransportTarget,
		},
		{
			name: "udp without port",
			body: "stations:\n  - name: a\n    connection: udp\n",
			want: ErrMissingTransportTarget,
		},
		{
			name: "usb without device",
			body: "stations:\n  - name: a\n    connection: usb\n",
			want: ErrMissingTransportTarget,
		},
		{
			name: "unknown connection",
			body: "stations:\n  - name: a\n    connection: carrier-pigeon\n",
			want: ErrUnknownConnection,
		},
		{
			name: "kafka without brokers",
			body: "stations:\n  - name: a\nstorage:\n  kafka:\n    topic: t\n",
			want: ErrEmptyKafkaBrokers,
		},
		{
			name: "kafka without topic",
			body: "stations:\n  - name: a\nstorage:\n  kafka:\n    brokers: [b:9092]\n",
			want: ErrEmptyKafkaTopic,
		},
		{
			name: "bad interval",
			body: "stations:\n  - name: a\nreport:\n  interval: -1m\n",
			want: ErrInvalidReportInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewViperProvider(writeConfig(t, tt.body)).LoadConfig()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := NewViperProvider(filepath.Join(t.TempDir(), "absent.yaml")).LoadConfig()
	assert.Error(t, err)
}
