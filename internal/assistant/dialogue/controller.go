package dialogue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/capture"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/speech"
	"github.com/Chative-core-poc-v1/voice/internal/telemetry"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

const (
	eventBuffer    = 64
	historyTimeout = 2 * time.Second
)

// Capture is the speech capture adapter consumed by the controller.
type Capture interface {
	Start() error
	Stop() error
}

// Speech is the speech output adapter consumed by the controller.
type Speech interface {
	Speak(ctx context.Context, text string) error
	Unlock(ctx context.Context) bool
	Cancel()
}

// Classifier never fails; degraded answers come back as fallback classifications.
type Classifier interface {
	Classify(ctx context.Context, transcript string, sc model.SessionContext) model.Classification
}

type Dispatcher interface {
	Dispatch(ctx context.Context, t model.IntentType, userInput string) error
}

// Display shows transcript, reply and status to the user.
type Display interface {
	ShowTranscript(text string)
	ShowReply(text string)
	ShowStatus(status string)
	ShowNotice(text string)
}

// Deps are the collaborators of one session. History and Clock are optional.
type Deps struct {
	Capture    Capture
	Speech     Speech
	Classifier Classifier
	Dispatcher Dispatcher
	Display    Display
	History    model.HistoryRepository
	Clock      Clock
}

// Controller owns the dialogue State of one session. All state changes happen
// on the goroutine running Run; adapters and timers talk to it through Post.
type Controller struct {
	sessionID string
	cfg       model.DialogueConfig
	deps      Deps
	clock     Clock
	log       zerolog.Logger

	mu      sync.Mutex
	state   State
	events  chan Event
	backlog []Event

	timers   [numTimers]Timer
	timerGen [numTimers]uint64

	// ctx scopes speech and dispatch work and is cancelled on teardown.
	// Classification runs on a detached context and is never cancelled mid-flight.
	ctx    context.Context
	cancel context.CancelFunc

	async    func(func())
	done     chan struct{}
	doneOnce sync.Once
}

func New(sessionID string, cfg model.DialogueConfig, deps Deps) *Controller {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	if deps.Display == nil {
		deps.Display = nopDisplay{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		sessionID: sessionID,
		cfg:       cfg,
		deps:      deps,
		clock:     deps.Clock,
		log:       logx.With("dialogue").With().Str("session_id", sessionID).Logger(),
		state:     NewState(),
		events:    make(chan Event, eventBuffer),
		ctx:       ctx,
		cancel:    cancel,
		async:     func(f func()) { go f() },
		done:      make(chan struct{}),
	}
}

// Post queues an event. It never blocks after the controller has stopped.
func (c *Controller) Post(evt Event) {
	select {
	case c.events <- evt:
	case <-c.done:
	}
}

// Start announces the session profile; capture starts after the startup delay.
func (c *Controller) Start(p model.Profile) { c.Post(SessionReady{Profile: p}) }

// RequestUnlock forwards a user gesture.
func (c *Controller) RequestUnlock(explicit bool) { c.Post(UnlockRequested{Explicit: explicit}) }

// Close tears the session down.
func (c *Controller) Close() { c.Post(Teardown{}) }

// State returns a snapshot of the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID identifies the session in logs and history.
func (c *Controller) SessionID() string { return c.sessionID }

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Run processes events until teardown or until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer c.stop()
	c.log.Info().Msg("dialogue session started")
	for {
		select {
		case <-ctx.Done():
			c.handle(Teardown{})
			return ctx.Err()
		case evt := <-c.events:
			c.handle(evt)
			if c.state.Closed() {
				return nil
			}
		}
	}
}

func (c *Controller) stop() {
	c.doneOnce.Do(func() {
		c.cancel()
		close(c.done)
		c.log.Info().Msg("dialogue session closed")
	})
}

// handle runs evt and every event its effects raise synchronously.
func (c *Controller) handle(evt Event) {
	c.backlog = append(c.backlog, evt)
	for len(c.backlog) > 0 {
		evt := c.backlog[0]
		c.backlog = c.backlog[1:]

		if tf, ok := evt.(TimerFired); ok && tf.gen != c.timerGen[tf.Timer] {
			continue
		}

		prev := c.state
		next, effects := Step(prev, evt, c.clock.Now(), c.cfg)
		c.mu.Lock()
		c.state = next
		c.mu.Unlock()
		if prev.Phase != next.Phase {
			c.log.Debug().Stringer("from", prev.Phase).Stringer("to", next.Phase).Msgf("%T", evt)
		}
		for _, fx := range effects {
			c.apply(fx)
		}
	}
}

func (c *Controller) apply(fx Effect) {
	switch e := fx.(type) {
	case StartCapture:
		c.startCapture()
	case StopCapture:
		if err := c.deps.Capture.Stop(); err != nil {
			c.log.Debug().Err(err).Msg("stop capture failed, ignoring")
		}
	case Classify:
		c.classify(e)
	case Speak:
		c.speak(e.Text)
	case CancelPlayback:
		c.deps.Speech.Cancel()
	case TryUnlock:
		c.async(func() {
			ok := c.deps.Speech.Unlock(c.ctx)
			c.Post(UnlockResolved{OK: ok, Explicit: e.Explicit})
		})
	case Dispatch:
		c.dispatch(e.Action)
	case Schedule:
		c.startTimer(e.Timer, e.After)
	case CancelTimer:
		c.stopTimer(e.Timer)
	case ShowTranscript:
		c.deps.Display.ShowTranscript(e.Text)
	case ShowReply:
		c.deps.Display.ShowReply(e.Text)
	case ShowStatus:
		c.log.Info().Str("status", string(e.Status)).Msg("connection status changed")
		c.deps.Display.ShowStatus(string(e.Status))
	case ShowNotice:
		c.deps.Display.ShowNotice(e.Text)
	case RecordTurn:
		c.record(e)
	case Discard:
		c.log.Debug().Str("transcript", e.Transcript).Str("reason", e.Reason).Msg("transcript discarded")
		telemetry.CommandsTotal.WithLabelValues("discarded", e.Reason).Inc()
	}
}

func (c *Controller) startCapture() {
	err := c.deps.Capture.Start()
	switch {
	case err == nil:
	case errors.Is(err, capture.ErrAlreadyStarted):
		c.log.Debug().Msg("capture already running")
	default:
		c.log.Warn().Err(err).Msg("capture start failed")
		c.backlog = append(c.backlog, CaptureFailed{Code: capture.CodeStartFailed})
	}
}

func (c *Controller) classify(e Classify) {
	telemetry.CommandsTotal.WithLabelValues("accepted", "").Inc()
	sc := model.NewSessionContext(e.Profile, c.clock.Now())
	c.log.Info().Uint64("turn", e.Turn).Str("transcript", e.Transcript).Msg("command accepted")
	c.async(func() {
		res := c.deps.Classifier.Classify(context.Background(), e.Transcript, sc)
		c.Post(Classified{Turn: e.Turn, Result: res})
	})
}

func (c *Controller) speak(text string) {
	c.async(func() {
		if err := c.deps.Speech.Speak(c.ctx, text); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("speak failed")
			c.Post(PlaybackFailed{Code: speech.CodeSynthesisFailed})
		}
	})
}

func (c *Controller) dispatch(a Action) {
	telemetry.ActionsTotal.WithLabelValues(a.Type.String()).Inc()
	if c.deps.Dispatcher == nil {
		return
	}
	c.async(func() {
		if err := c.deps.Dispatcher.Dispatch(c.ctx, a.Type, a.UserInput); err != nil {
			c.log.Warn().Err(err).Str("type", a.Type.String()).Msg("dispatch failed")
		}
	})
}

func (c *Controller) record(e RecordTurn) {
	res := e.Result
	telemetry.ClassificationsTotal.WithLabelValues(string(res.Source), string(res.Reason)).Inc()
	telemetry.ClassificationLatency.WithLabelValues(string(res.Source)).Observe(res.Latency.Seconds())
	c.log.Info().
		Str("type", res.Record.Type.String()).
		Str("source", string(res.Source)).
		Str("reason", string(res.Reason)).
		Dur("latency", res.Latency).
		Msg("command classified")

	if c.deps.History == nil {
		return
	}
	turn := model.Turn{
		SessionID:  c.sessionID,
		Transcript: e.Transcript,
		Record:     res.Record,
		Source:     res.Source,
		Latency:    res.Latency,
		At:         c.clock.Now(),
	}
	c.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := c.deps.History.Append(ctx, c.sessionID, turn); err != nil {
			c.log.Warn().Err(err).Msg("history append failed")
		}
	})
}

func (c *Controller) startTimer(k TimerKind, after time.Duration) {
	c.stopTimer(k)
	gen := c.timerGen[k]
	c.timers[k] = c.clock.AfterFunc(after, func() {
		c.Post(TimerFired{Timer: k, gen: gen})
	})
}

func (c *Controller) stopTimer(k TimerKind) {
	if t := c.timers[k]; t != nil {
		t.Stop()
		c.timers[k] = nil
	}
	c.timerGen[k]++
}

type nopDisplay struct{}

func (nopDisplay) ShowTranscript(string) {}
func (nopDisplay) ShowReply(string)      {}
func (nopDisplay) ShowStatus(string)     {}
func (nopDisplay) ShowNotice(string)     {}
