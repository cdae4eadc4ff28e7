package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/core"
	"github.com/chatlens/chatlens/internal/genai/driver"
	"github.com/chatlens/chatlens/internal/metrics"
)

// DefaultKey partitions admission state when the caller has no session concept.
const DefaultKey = "default"

// DefaultCallTimeout bounds a single provider call.
const DefaultCallTimeout = 30 * time.Second

// Fixed user-safe texts substituted for the real answer when the provider
// call cannot be completed.
const (
	FallbackOverCapacity = "service temporarily over capacity"
	FallbackUnavailable  = "service temporarily unavailable"
	FallbackMalformed    = "unexpected response from service"
)

// ChatClient is the slice of the provider surface the dispatcher consumes:
// one prompt in, generated text or a classifiable error out.
type ChatClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ExchangeRecorder is the persistence sink for completed exchanges.
// Failures are logged by the dispatcher and never affect the response.
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, exchange core.Exchange) error
}

// DispatcherConfig carries the dispatcher knobs fixed at startup.
type DispatcherConfig struct {
	// Timeout bounds each provider call. Defaults to DefaultCallTimeout.
	Timeout time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Dispatcher orchestrates one chat turn: it gates on admission, invokes the
// provider, classifies the result into a core.Outcome, and records the
// exchange. Handle never returns an error; every reachable state yields a
// defined textual response. The dispatcher holds no mutable state of its
// own — all collaborators are injected at construction.
type Dispatcher struct {
	admission *Controller
	client    ChatClient
	recorder  ExchangeRecorder
	logger    *logging.Logger
	timeout   time.Duration
	clock     func() time.Time
}

// NewDispatcher wires a dispatcher from its collaborators. recorder and
// logger may be nil; persistence and logging are then skipped.
func NewDispatcher(admission *Controller, client ChatClient, recorder ExchangeRecorder, logger *logging.Logger, cfg DispatcherConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Dispatcher{
		admission: admission,
		client:    client,
		recorder:  recorder,
		logger:    logger,
		timeout:   timeout,
		clock:     clock,
	}
}

// Handle runs one user-facing chat turn for key. The admission check happens
// strictly before the provider call, so denied requests never pay network
// latency or spend provider quota. An admitted call that subsequently fails
// still counts against the window; the slot was consumed when the network
// request was made.
func (d *Dispatcher) Handle(ctx context.Context, key, prompt string) (string, core.Outcome) {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}

	verdict := d.admission.Check(key)
	if !verdict.Allowed {
		outcome := core.Outcome{
			Kind:       core.OutcomeRateLimited,
			RetryAfter: verdict.RetryAfter,
		}
		outcome.Text = fmt.Sprintf("too many requests; try again in %d seconds", outcome.RetryAfterSeconds())
		metrics.RecordAdmissionDenied(key)
		return outcome.Text, outcome
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	text, err := d.client.Generate(callCtx, prompt)
	cancel()

	outcome := classify(text, err)
	metrics.RecordChatTurn(string(outcome.Kind))

	d.record(ctx, key, prompt, outcome)

	return outcome.Text, outcome
}

// classify maps every provider-call result onto exactly one outcome kind, so
// callers never need fallback logic of their own. No retry is attempted
// here; failures are reported and the caller may re-enter Handle, which
// re-enters admission control.
func classify(text string, err error) core.Outcome {
	if err == nil {
		if strings.TrimSpace(text) == "" {
			return core.Outcome{Kind: core.OutcomeMalformedResponse, Text: FallbackMalformed}
		}
		return core.Outcome{Kind: core.OutcomeSuccess, Text: text}
	}

	var merr *driver.MalformedError
	if errors.As(err, &merr) {
		metrics.RecordProviderError("malformed")
		return core.Outcome{Kind: core.OutcomeMalformedResponse, Text: FallbackMalformed}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr.StatusCode == http.StatusTooManyRequests {
		metrics.RecordProviderError("quota")
		return core.Outcome{
			Kind:       core.OutcomeQuotaExceeded,
			Text:       FallbackOverCapacity,
			RetryAfter: perr.RetryAfter,
		}
	}

	// Any other provider status, connection failure, or timeout.
	metrics.RecordProviderError("transient")
	return core.Outcome{Kind: core.OutcomeTransientFailure, Text: FallbackUnavailable}
}

// record hands the completed exchange to the persistence sink. Best effort:
// a failure is logged and counted but never alters the computed outcome.
func (d *Dispatcher) record(ctx context.Context, key, prompt string, outcome core.Outcome) {
	if d.recorder == nil {
		return
	}

	exchange := core.Exchange{
		ID:        uuid.New().String(),
		Key:       key,
		Prompt:    prompt,
		Response:  outcome.Text,
		Outcome:   outcome.Kind,
		CreatedAt: d.clock(),
	}

	if err := d.recorder.RecordExchange(ctx, exchange); err != nil {
		metrics.RecordExchangeRecordFailure()
		if d.logger != nil {
			d.logger.Warn("failed to persist exchange",
				zap.String("exchange_id", exchange.ID),
				zap.String("key", key),
				zap.String("outcome", string(outcome.Kind)),
				zap.Error(err))
		}
	}
}
