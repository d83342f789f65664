package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wofa-ai/wofa/internal/attach"
	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/compose"
	"github.com/wofa-ai/wofa/internal/reveal"
	"github.com/wofa-ai/wofa/internal/session"
)

var askImage string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer",
	Long: `Ask sends a single question and prints the answer with the same
typing effect as the interactive session. Without a question, the
active course and lesson decide what is asked.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askImage, "image", "i", "", "image file to attach")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	turn := session.Turn{Text: strings.Join(args, " ")}
	if askImage != "" {
		dataURL, err := attach.EncodeFile(askImage)
		if err != nil {
			return fmt.Errorf("attaching image: %w", err)
		}
		turn.Image = dataURL
	}

	if turn.Empty() && a.sess.Course() == "" {
		return errors.New("nothing to ask: pass a question, --image, or select a course with 'wofa courses --select'")
	}

	q := compose.Compose(turn, a.sess)
	dispatcher := backend.NewDispatcher(a.client, a.logger)

	result, err := dispatcher.Send(ctx, q, a.sess.Token())
	if err != nil {
		return askFailure(ctx, a, err)
	}

	// Same reveal pacing as the interactive session.
	task := reveal.New(result.Answer, result.Images, time.Duration(a.cfg.TypingDelayMS)*time.Millisecond)
	var printed int
	task.Run(ctx, func(prefix string) {
		fmt.Print(prefix[printed:])
		printed = len(prefix)
	})
	fmt.Println()

	for _, img := range result.Images {
		path, err := attach.SaveDataURL(filepath.Join(a.cfg.DataDir, "images"), img)
		if err != nil {
			a.logger.Warn("failed to save answer image", "error", err)
			continue
		}
		fmt.Printf("[image: %s]\n", path)
	}

	if err := a.store.RecordTurn(ctx, q.Text, result.Answer, a.sess.Course(), a.sess.Lesson()); err != nil {
		a.logger.Warn("failed to record exchange", "error", err)
	}
	return nil
}

// askFailure maps dispatch errors to actionable messages.
func askFailure(ctx context.Context, a *app, err error) error {
	var rejected *backend.RejectedError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		a.sess.ClearToken()
		if derr := a.store.Clear(ctx); derr != nil {
			a.logger.Warn("failed to clear persisted session", "error", derr)
		}
		return errors.New("your session has expired: run 'wofa login' to sign in again")
	case errors.As(err, &rejected):
		if rejected.Message != "" {
			return fmt.Errorf("WOFA AI rejected the question: %s", rejected.Message)
		}
		return fmt.Errorf("WOFA AI rejected the question (status %d)", rejected.Status)
	case errors.Is(err, backend.ErrUnreachable):
		return errors.New("unable to connect to WOFA AI")
	default:
		return err
	}
}
