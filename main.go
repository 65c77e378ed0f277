package main

import (
	"os"
	"os/signal"
	"strings"

	"github.com/habedi/rentdesk/cmd"
	"github.com/habedi/rentdesk/db"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main loads .env, sets up logging and the interrupt handler, then runs the CLI.
func main() {
	// A missing .env is fine; the file only fills in unset variables.
	_ = godotenv.Load()

	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, func(msg string) { log.Error().Msg(msg) }, os.Exit)

	cmd.Execute()
}

// configureLogLevelFromEnv enables debug logging when DEBUG_RENTDESK is set
// to anything other than empty, "0" or "false".
func configureLogLevelFromEnv() {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DEBUG_RENTDESK")))
	if v == "" || v == "0" || v == "false" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt closes the database and exits once a signal arrives.
func handleInterrupt(stopChan chan os.Signal, logFn func(string), exit func(int)) {
	<-stopChan
	logFn("Interrupt signal received. Exiting...")
	db.Shutdown()
	exit(1)
}
