// Package cmd wires the wofa command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wofa",
	Short: "WOFA - AI tutoring in your terminal",
	Long: `WOFA is a terminal client for the WOFA AI tutoring service.

Ask questions in plain language, work through courses lesson by lesson,
attach images for step-by-step explanations, or talk to the tutor by
voice. Running wofa without arguments starts an interactive session.`,
	SilenceUsage: true,
	RunE:         runChat,
}

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
