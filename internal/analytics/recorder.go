package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hasnainrazaa03/jarvis/internal/hermes"
)

// WriteObserver is told about every sink write, for metrics.
type WriteObserver interface {
	AnalyticsWrite(sink string, err error)
}

// NamedSink is a Sink with a label for logs and metrics.
type NamedSink struct {
	Name string
	Sink
}

// Recorder writes interactions to a primary sink, falls back to a secondary
// sink when the primary fails, and publishes an event for each write.
// Any of its collaborators may be nil.
type Recorder struct {
	primary   *NamedSink
	fallback  *NamedSink
	publisher Publisher
	observer  WriteObserver
	logger    *slog.Logger
}

func NewRecorder(primary, fallback *NamedSink, publisher Publisher, observer WriteObserver, logger *slog.Logger) *Recorder {
	return &Recorder{
		primary:   primary,
		fallback:  fallback,
		publisher: publisher,
		observer:  observer,
		logger:    logger,
	}
}

// Log stores in. It only returns an error when no sink accepted the record;
// chat callers ignore it.
func (r *Recorder) Log(ctx context.Context, in Interaction) error {
	if r.primary == nil && r.fallback == nil {
		return ErrNoSink
	}

	err := r.write(ctx, r.primary, in)
	if err != nil && r.primary != nil {
		r.logger.Warn("analytics primary sink failed", "sink", r.primary.Name, "error", err)
	}
	if err != nil {
		if ferr := r.write(ctx, r.fallback, in); ferr != nil {
			r.logger.Error("analytics write dropped", "interaction_id", in.ID, "error", ferr)
			return fmt.Errorf("log interaction: %w", ferr)
		}
	}

	if r.publisher != nil {
		if perr := r.publisher.Publish(hermes.SubjectInteractionLogged, in); perr != nil {
			r.logger.Warn("failed to publish interaction", "interaction_id", in.ID, "error", perr)
		}
	}
	return nil
}

func (r *Recorder) write(ctx context.Context, s *NamedSink, in Interaction) error {
	if s == nil || s.Sink == nil {
		return ErrNoSink
	}
	err := s.Log(ctx, in)
	if r.observer != nil {
		r.observer.AnalyticsWrite(s.Name, err)
	}
	return err
}
