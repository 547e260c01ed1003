package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gps_config.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
# GPS computer test config
MQTT_BROKER = tcp://localhost:1883
TOPIC_GPS_FIX = gps/fix

GPS_SERIAL_PORT = /dev/serial0
GPS_BAUD_RATE = 9600
GPS_RATE_PRESET = 2x1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GPSTransport != "serial" {
		t.Errorf("GPSTransport = %q, want default serial", cfg.GPSTransport)
	}
	if cfg.GPSRatePreset != "2x1" {
		t.Errorf("GPSRatePreset = %q, want 2x1", cfg.GPSRatePreset)
	}
	if cfg.GPSReadTimeout != 1500 {
		t.Errorf("GPSReadTimeout = %d, want default 1500", cfg.GPSReadTimeout)
	}
	if cfg.GPSConfigRetries != 1 {
		t.Errorf("GPSConfigRetries = %d, want default 1", cfg.GPSConfigRetries)
	}
	if cfg.GPSBaudRate != 9600 {
		t.Errorf("GPSBaudRate = %d, want 9600", cfg.GPSBaudRate)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing broker", "TOPIC_GPS_FIX = gps/fix\nGPS_SERIAL_PORT = /dev/serial0\nGPS_BAUD_RATE = 9600\n"},
		{"unknown key", "MQTT_BROKER = tcp://localhost:1883\nTOPIC_GPS_FIX = gps/fix\nBOGUS = 1\n"},
		{"bad preset", "MQTT_BROKER = tcp://localhost:1883\nTOPIC_GPS_FIX = gps/fix\nGPS_RATE_PRESET = 10x1\n"},
		{"spi without device", "MQTT_BROKER = tcp://localhost:1883\nTOPIC_GPS_FIX = gps/fix\nGPS_TRANSPORT = spi\n"},
		{"nmea over spi", "MQTT_BROKER = tcp://localhost:1883\nTOPIC_GPS_FIX = gps/fix\nGPS_TRANSPORT = spi\nGPS_SPI_DEVICE = /dev/spidev0.0\nGPS_PROTOCOL = nmea\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}
