package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// GPS link
	GPSTransport  string // "serial" or "spi"
	GPSSerialPort string
	GPSBaudRate   int
	GPSSPIDevice  string
	GPSSPISpeedHz int

	// GPS protocol
	GPSProtocol   string // "ubx" (default) or "nmea" passthrough
	GPSRatePreset string // "4x2" or "2x1"

	// GPS timing / retries
	GPSReadTimeout   int // milliseconds
	GPSReadInterval  int // milliseconds between decode cycles
	GPSConfigRetries int // retries per configuration step
	GPSConfigVerify  bool

	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicGPSFix string

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// defaults returns a Config pre-filled with the values that may be omitted
// from the file.
func defaults() *Config {
	return &Config{
		GPSTransport:          "serial",
		GPSProtocol:           "ubx",
		GPSRatePreset:         "4x2",
		GPSSPISpeedHz:         115200,
		GPSReadTimeout:        1500,
		GPSReadInterval:       400,
		GPSConfigRetries:      1,
		GPSConfigVerify:       true,
		WebServerPort:         8080,
		DisplayUpdateInterval: 500,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// GPS link
	case "GPS_TRANSPORT":
		if value != "serial" && value != "spi" {
			return fmt.Errorf("GPS_TRANSPORT must be \"serial\" or \"spi\", got %q", value)
		}
		c.GPSTransport = value
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate
	case "GPS_SPI_DEVICE":
		c.GPSSPIDevice = value
	case "GPS_SPI_SPEED_HZ":
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_SPI_SPEED_HZ %q: %w", value, err)
		}
		c.GPSSPISpeedHz = hz

	// GPS protocol
	case "GPS_PROTOCOL":
		if value != "ubx" && value != "nmea" {
			return fmt.Errorf("GPS_PROTOCOL must be \"ubx\" or \"nmea\", got %q", value)
		}
		c.GPSProtocol = value
	case "GPS_RATE_PRESET":
		if value != "4x2" && value != "2x1" {
			return fmt.Errorf("GPS_RATE_PRESET must be \"4x2\" or \"2x1\", got %q", value)
		}
		c.GPSRatePreset = value

	// GPS timing / retries
	case "GPS_READ_TIMEOUT":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_READ_TIMEOUT %q: %w", value, err)
		}
		c.GPSReadTimeout = ms
	case "GPS_READ_INTERVAL":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_READ_INTERVAL %q: %w", value, err)
		}
		c.GPSReadInterval = ms
	case "GPS_CONFIG_RETRIES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_CONFIG_RETRIES %q: %w", value, err)
		}
		c.GPSConfigRetries = n
	case "GPS_CONFIG_VERIFY":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_CONFIG_VERIFY %q: %w", value, err)
		}
		c.GPSConfigVerify = b

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_GPS_FIX":
		c.TopicGPSFix = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicGPSFix == "" {
		return fmt.Errorf("TOPIC_GPS_FIX is required")
	}
	switch c.GPSTransport {
	case "serial":
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required for serial transport")
		}
		if c.GPSBaudRate == 0 {
			return fmt.Errorf("GPS_BAUD_RATE is required for serial transport")
		}
	case "spi":
		if c.GPSSPIDevice == "" {
			return fmt.Errorf("GPS_SPI_DEVICE is required for spi transport")
		}
	}
	if c.GPSProtocol == "nmea" && c.GPSTransport != "serial" {
		return fmt.Errorf("GPS_PROTOCOL=nmea requires the serial transport")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
