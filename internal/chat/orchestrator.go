package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hasnainrazaa03/jarvis/internal/analytics"
	"github.com/hasnainrazaa03/jarvis/internal/content"
	"github.com/hasnainrazaa03/jarvis/internal/metrics"
	"github.com/hasnainrazaa03/jarvis/internal/provider"
	"github.com/hasnainrazaa03/jarvis/internal/sanitize"
)

// DefaultAttempts is the primary provider plus one fallback.
const DefaultAttempts = 2

// DefaultRecordWait is how long a turn waits for its analytics write before
// answering anyway.
const DefaultRecordWait = 2 * time.Second

// recordWriteTimeout bounds an analytics write that outlives its turn.
const recordWriteTimeout = 10 * time.Second

const logSnippetLength = 80

// Config wires an Orchestrator. Only Content is required.
type Config struct {
	Content   *content.Content
	Providers *provider.Registry
	// Attempts caps how many providers one turn may try.
	Attempts int

	Recorder analytics.Sink
	// RecordWait caps how long Respond blocks on the recorder.
	RecordWait time.Duration

	Alerters []Alerter
	Metrics  *metrics.Metrics
	Shaper   *Shaper
	Logger   *slog.Logger
}

type Orchestrator struct {
	providers *provider.Registry
	attempts  int
	recorder  analytics.Sink
	wait      time.Duration
	alerters  []Alerter
	metrics   *metrics.Metrics
	shaper    *Shaper
	local     *LocalResponder
	system    string
	logger    *slog.Logger
}

func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RecordWait <= 0 {
		cfg.RecordWait = DefaultRecordWait
	}
	if cfg.Shaper == nil {
		cfg.Shaper = NewShaper(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		providers: cfg.Providers,
		attempts:  cfg.Attempts,
		recorder:  cfg.Recorder,
		wait:      cfg.RecordWait,
		alerters:  cfg.Alerters,
		metrics:   cfg.Metrics,
		shaper:    cfg.Shaper,
		local:     NewLocalResponder(cfg.Content.Profile),
		system:    SystemPrompt(cfg.Content),
		logger:    cfg.Logger,
	}
}

// Respond answers the latest user message in history. It never fails: a
// rejected message yields a flagged Response, and provider failures fall
// through to the local responder.
func (o *Orchestrator) Respond(ctx context.Context, history []Message, opts Options) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("chat turn panicked", "panic", r)
			resp = Response{Reply: defaultReply, Source: SourceLocal}
		}
	}()

	history = TrimHistory(history, MaxHistory)
	idx, raw, ok := LatestUserMessage(history)
	if !ok {
		return o.flag(ctx, sanitize.Result{Reason: sanitize.InvalidInput}, "")
	}

	res := sanitize.Sanitize(raw)
	if !res.Usable() {
		if res.Safe {
			res.Reason = sanitize.InvalidInput
		}
		return o.flag(ctx, res, raw)
	}
	question := res.Cleaned

	system := o.system
	if recent := RecentQuestions(history[:idx]); recent != "" {
		system += "\n\n=== CONVERSATION ===\n" + recent
	}

	source := SourceProvider
	reply, name, err := o.generate(ctx, system, question, opts.Provider)
	if err != nil {
		var trig string
		reply, trig = o.local.Respond(question)
		source, name = SourceLocal, ""
		o.logger.Error("all providers failed, answering locally", "trigger", trig, "error", err)
	} else {
		reply = o.shaper.Shape(reply)
	}
	o.metrics.ChatResponse(source)

	session := opts.Session
	if session.ID == "" {
		session = analytics.NewSession()
	}
	in := analytics.NewInteraction(session, question, reply, opts.Meta)
	o.record(ctx, in)

	return Response{
		Reply:    reply,
		Provider: name,
		Source:   source,
		Topics:   in.Topics,
		Entities: in.Entities,
	}
}

// record hands in to the recorder on its own goroutine and waits at most
// o.wait for it. The write keeps running after the turn ends.
func (o *Orchestrator) record(ctx context.Context, in analytics.Interaction) {
	if o.recorder == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordWriteTimeout)
		defer cancel()
		if err := o.recorder.Log(wctx, in); err != nil {
			o.logger.Warn("failed to record interaction", "interaction_id", in.ID, "error", err)
		}
	}()

	timer := time.NewTimer(o.wait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		o.logger.Warn("analytics write still pending, answering without it", "interaction_id", in.ID)
	case <-ctx.Done():
	}
}

// generate walks the provider chain until one answers.
func (o *Orchestrator) generate(ctx context.Context, system, question, preferred string) (string, string, error) {
	if o.providers == nil {
		return "", "", ErrNoProviders
	}
	chain := o.providers.Chain(preferred, o.attempts)
	if len(chain) == 0 {
		return "", "", ErrNoProviders
	}

	var errs []error
	for _, p := range chain {
		start := time.Now()
		reply, err := p.Generate(ctx, system, question)
		o.metrics.ProviderCall(p.Name(), time.Since(start), err)
		if err == nil {
			o.logger.Debug("provider answered", "provider", p.Name(), "elapsed", time.Since(start))
			return reply, p.Name(), nil
		}
		o.logger.Warn("provider failed", "provider", p.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return "", "", errors.Join(errs...)
}

// flag short-circuits a rejected message. Empty input is only counted;
// pattern and obfuscation hits are also logged and sent to the alerters.
func (o *Orchestrator) flag(ctx context.Context, res sanitize.Result, raw string) Response {
	reason := string(res.Reason)
	o.metrics.SanitizerFlag(reason)
	o.metrics.ChatResponse(SourceFlagged)

	if res.Reason != sanitize.InvalidInput {
		snippet := truncateRunes(raw, logSnippetLength)
		o.logger.Warn("flagged chat input", "reason", reason, "snippet", snippet)
		for _, a := range o.alerters {
			if err := a.Alert(ctx, reason, snippet); err != nil {
				o.logger.Warn("flagged input alert failed", "reason", reason, "error", err)
			}
		}
	}

	return Response{
		Reply:   FlaggedReply,
		Flagged: true,
		Reason:  reason,
		Source:  SourceFlagged,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
