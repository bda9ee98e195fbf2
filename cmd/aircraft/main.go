// Command aircraft runs the airport aircraft-instance service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received interrupt signal, shutting down...")
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aircraft",
		Short: "Aircraft instance service for the airport simulation",
		Long: `The aircraft service owns the lifecycle of aircraft instances: random
generation per flight, capacity-checked resource updates, and the landing
and takeoff flows against ground control and the fleet orchestrator.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	return rootCmd
}
