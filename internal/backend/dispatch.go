package backend

import (
	"context"
	"sync/atomic"

	"github.com/wofa-ai/wofa/internal/compose"
	"github.com/wofa-ai/wofa/internal/log"
)

// Dispatcher serializes chat requests: at most one may be outstanding
// at any time. A second Send while one is in flight fails immediately
// with ErrBusy and issues no network call.
//
// The guard is an atomic rather than the session's Sending flag because
// Send runs off the event loop; the controller mirrors the in-flight
// state into the session on the loop itself.
type Dispatcher struct {
	client   *Client
	logger   log.Logger
	inFlight atomic.Bool
}

// NewDispatcher wraps a client with the single-flight guard.
func NewDispatcher(client *Client, logger log.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// Send issues one chat request. It performs no retries: on any failure
// the user re-submits.
//
// Error taxonomy: ErrBusy (guard), ErrUnauthorized (401, caller must
// invalidate the session), *RejectedError (other non-success status),
// ErrUnreachable (no response).
func (d *Dispatcher) Send(ctx context.Context, q compose.Question, token string) (AnswerResult, error) {
	if !d.inFlight.CompareAndSwap(false, true) {
		d.logger.Warn("dispatch rejected: request already in flight")
		return AnswerResult{}, ErrBusy
	}
	defer d.inFlight.Store(false)

	d.logger.Debug("dispatching question",
		"len", len(q.Text), "has_image", q.Image != "", "course", q.Course, "lesson", q.Lesson)

	result, err := d.client.Chat(ctx, q, token)
	if err != nil {
		return AnswerResult{}, err
	}
	if result.Answer == "" {
		// Backend occasionally returns 200 with an empty answer; the
		// web client showed a placeholder, we do the same upstream.
		result.Answer = "No response generated."
	}
	return result, nil
}

// Busy reports whether a request is currently outstanding.
func (d *Dispatcher) Busy() bool { return d.inFlight.Load() }
