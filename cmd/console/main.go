package main

import (
	"log"

	"github.com/relabs-tech/gps_computer/internal/app"
	"github.com/relabs-tech/gps_computer/internal/config"
)

func main() {
	log.Println("starting gps-computer console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("gps_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
