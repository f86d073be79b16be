package capture

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

// Error codes reported by recognition engines.
const (
	CodeAborted     = "aborted"
	CodeNoSpeech    = "no-speech"
	CodeNetwork     = "network"
	CodeNotAllowed  = "not-allowed"
	CodeStartFailed = "start-failed"
)

// ErrAlreadyStarted is returned by Start while a recognition is in progress.
var ErrAlreadyStarted = errors.New("capture: recognition already started")

// Listener receives recognition lifecycle events.
type Listener interface {
	OnStart()
	OnEnd()
	OnError(code string)
	OnResult(transcript string)
}

// Engine is the host speech-to-text engine.
type Engine interface {
	StartRecognition(opts model.CaptureConfig) error
	StopRecognition() error
}

// Adapter wraps an Engine with single-recognition bookkeeping and
// forwards engine callbacks to a Listener.
type Adapter struct {
	mu       sync.Mutex
	engine   Engine
	opts     model.CaptureConfig
	listener Listener
	running  bool
	log      zerolog.Logger
}

func NewAdapter(engine Engine, opts model.CaptureConfig) *Adapter {
	return &Adapter{engine: engine, opts: opts, log: logx.With("capture")}
}

// Listen sets the event listener. It must be called before Start.
func (a *Adapter) Listen(l Listener) {
	a.mu.Lock()
	a.listener = l
	a.mu.Unlock()
}

// Start begins one recognition. It returns ErrAlreadyStarted when one is running.
func (a *Adapter) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return ErrAlreadyStarted
	}
	if err := a.engine.StartRecognition(a.opts); err != nil {
		return errx.New(err, errx.KindCapture, "start recognition")
	}
	a.running = true
	return nil
}

// Stop ends the current recognition. Stopping an idle adapter is a no-op.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	if err := a.engine.StopRecognition(); err != nil {
		return errx.New(err, errx.KindCapture, "stop recognition")
	}
	return nil
}

// Running reports whether a recognition was started and has not ended.
func (a *Adapter) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// HandleStart is called by the engine when audio capture begins.
func (a *Adapter) HandleStart() {
	a.mu.Lock()
	a.running = true
	l := a.listener
	a.mu.Unlock()
	if l != nil {
		l.OnStart()
	}
}

// HandleEnd is called by the engine when a recognition finishes for any reason.
func (a *Adapter) HandleEnd() {
	a.mu.Lock()
	a.running = false
	l := a.listener
	a.mu.Unlock()
	if l != nil {
		l.OnEnd()
	}
}

// HandleError is called by the engine with its error code.
func (a *Adapter) HandleError(code string) {
	a.mu.Lock()
	a.running = false
	l := a.listener
	a.mu.Unlock()
	a.log.Debug().Str("code", code).Msg("recognition error")
	if l != nil {
		l.OnError(code)
	}
}

// HandleResults takes the engine's result list (results x alternatives) and
// forwards the first alternative of the last result.
func (a *Adapter) HandleResults(results [][]string) {
	transcript := LastTranscript(results)
	if transcript == "" {
		return
	}
	a.mu.Lock()
	l := a.listener
	a.mu.Unlock()
	if l != nil {
		l.OnResult(transcript)
	}
}

// LastTranscript picks the first alternative of the last result, trimmed.
func LastTranscript(results [][]string) string {
	if len(results) == 0 {
		return ""
	}
	last := results[len(results)-1]
	if len(last) == 0 {
		return ""
	}
	return strings.TrimSpace(last[0])
}
