package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/gps_computer/internal/config"
	"github.com/relabs-tech/gps_computer/internal/gps"
	"github.com/relabs-tech/gps_computer/internal/transport"
	"github.com/relabs-tech/gps_computer/internal/ubx"
)

// knots to metres per second
const knotsToMS = 0.514444

// RunGPSProducer opens the link to the M8Q receiver, switches it to binary
// UBX output, and publishes each decoded fix as JSON to the GPS fix topic.
// With GPS_PROTOCOL=nmea it instead leaves the receiver in its power-on
// NMEA mode and parses RMC sentences.
func RunGPSProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("gps: connected to MQTT broker at %s", cfg.MQTTBroker)
	defer client.Disconnect(250)

	if cfg.GPSProtocol == "nmea" {
		return runNMEAProducer(cfg, client)
	}

	// ---- 2) Open the receiver link ----
	tr, activePort, err := openTransport(cfg)
	if err != nil {
		return err
	}
	defer tr.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- 3) Switch the receiver to UBX and set the nav rate ----
	preset := ubx.Rate4x2
	if cfg.GPSRatePreset == "2x1" {
		preset = ubx.Rate2x1
	}

	report, err := ubx.Configure(ctx, tr, ubx.ConfigOptions{
		Rate:       preset,
		AckTimeout: time.Duration(cfg.GPSReadTimeout) * time.Millisecond,
		Retries:    cfg.GPSConfigRetries,
		Verify:     cfg.GPSConfigVerify,
		ActivePort: activePort,
	})
	if err != nil {
		return fmt.Errorf("gps: receiver configuration: %w", err)
	}
	if report.Rate != nil {
		log.Printf("gps: receiver reports measRate=%dms navRate=%d", report.Rate.MeasRate, report.Rate.NavRate)
	}
	log.Printf("gps: receiver configured, preset %s", cfg.GPSRatePreset)

	// ---- 4) Run the fix producer and publish ----
	ex := gps.NewExchange()
	fixCh := make(chan gps.Fix, 2)
	errCh := make(chan error, 1)

	interval := time.Duration(cfg.GPSReadInterval) * time.Millisecond
	go func() {
		errCh <- gps.RunProducer(ctx, tr, ex, interval, func(f gps.Fix) {
			select {
			case fixCh <- f:
			case <-ctx.Done():
			}
		})
	}()

	for {
		select {
		case <-ctx.Done():
			log.Println("gps: shutting down")
			<-errCh
			return nil

		case err := <-errCh:
			return err

		case f := <-fixCh:
			payload, err := json.Marshal(f)
			if err != nil {
				log.Printf("gps: JSON marshal error: %v", err)
				continue
			}
			token := client.Publish(cfg.TopicGPSFix, 0, true, payload)
			token.Wait()
			if token.Error() != nil {
				log.Printf("gps: publish error: %v", token.Error())
				continue
			}
			log.Printf("gps: published fix: %s", f)
		}
	}
}

// openTransport opens the configured byte link and reports which receiver
// port it is, so configuration read-backs can check the right rate slot.
func openTransport(cfg *config.Config) (transport.Transport, int, error) {
	switch cfg.GPSTransport {
	case "spi":
		tr, err := transport.OpenSPI(cfg.GPSSPIDevice, physic.Frequency(cfg.GPSSPISpeedHz)*physic.Hertz)
		if err != nil {
			return nil, 0, err
		}
		log.Printf("gps: SPI link opened on %q at %d Hz", cfg.GPSSPIDevice, cfg.GPSSPISpeedHz)
		return tr, ubx.PortSPI, nil

	default:
		readTimeout := time.Duration(cfg.GPSReadTimeout) * time.Millisecond
		tr, err := transport.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate, readTimeout)
		if err != nil {
			return nil, 0, err
		}
		log.Printf("gps: serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)
		return tr, ubx.PortUART1, nil
	}
}

// runNMEAProducer is the fallback mode: the receiver keeps its power-on
// NMEA output and we publish one fix per RMC sentence.
func runNMEAProducer(cfg *config.Config, client mqtt.Client) error {
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud (NMEA mode)", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)
	var current gps.Fix

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("gps: read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy receiver or partial sentences, keep going
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)

		current.Time = m.Time.String()
		current.Date = m.Date.String()
		current.Latitude = m.Latitude
		current.Longitude = m.Longitude
		current.SpeedMS = m.Speed * knotsToMS
		current.CourseDeg = m.Course
		current.FixType = "nmea"
		current.FixOK = string(m.Validity) == nmea.ValidRMC

		payload, err := json.Marshal(current)
		if err != nil {
			log.Printf("gps: JSON marshal error: %v", err)
			continue
		}

		token := client.Publish(cfg.TopicGPSFix, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("gps: publish error: %v", token.Error())
			continue
		}

		log.Printf("gps: published fix: %s", current)
	}
}
