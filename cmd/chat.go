package cmd

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/store"
	"github.com/wofa-ai/wofa/internal/tui"
	"github.com/wofa-ai/wofa/internal/voice"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	welcomed := a.store.GetDefault(ctx, store.KeyWelcomed, "") != ""
	theme := a.store.GetDefault(ctx, store.KeyTheme, "")

	bridge := voice.NewBridge(voice.NewCommandEngine(a.cfg.Speech), a.logger)
	dispatcher := backend.NewDispatcher(a.client, a.logger)

	ctrl, err := tui.New(ctx, tui.Deps{
		Session:    a.sess,
		Dispatcher: dispatcher,
		Client:     a.client,
		Voice:      bridge,
		Store:      a.store,
		Config:     a.cfg,
		Logger:     a.logger,
		Theme:      theme,
		Welcomed:   welcomed,
	})
	if err != nil {
		return err
	}

	// The tips show once; remember that they were seen.
	if !welcomed {
		if err := a.store.Set(ctx, store.KeyWelcomed, "1"); err != nil {
			a.logger.Warn("failed to record first run", "error", err)
		}
	}

	p := tea.NewProgram(ctrl, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal interface: %w", err)
	}
	return nil
}
