// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/itsatony/envmon/internal/config"
	"github.com/itsatony/envmon/internal/server"
	nuts "github.com/vaudience/go-nuts"
)

// @title Environmental Monitoring Hub API
// @version 1.0
// @description Sensor reading ingestion, time-series queries, aggregation and reports.
// @BasePath /api/v1
func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting envmon hub v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"  ___ _ ____   ___ __ ___   ___  _ __  ",
		" / _ \\ '_ \\ \\ / / '_ ` _ \\ / _ \\| '_ \\ ",
		"|  __/ | | \\ V /| | | | | | (_) | | | |",
		" \\___|_| |_|\\_/ |_| |_| |_|\\___/|_| |_|",
		"..........................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
