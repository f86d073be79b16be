package dialogue

import (
	"time"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
)

// Phase is the controller's position in the command pipeline.
// Listening, processing and speaking are mutually exclusive by construction.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseListening
	PhaseProcessing
	PhaseSpeaking
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseListening:
		return "listening"
	case PhaseProcessing:
		return "processing"
	case PhaseSpeaking:
		return "speaking"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionStatus is the indicator shown to the user.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusError        ConnectionStatus = "error"
)

// TimerKind names the cancellable timers owned by the controller.
type TimerKind uint8

const (
	TimerStartup TimerKind = iota
	TimerRestart
	TimerDispatch
	TimerPlayback
	numTimers
)

func (k TimerKind) String() string {
	switch k {
	case TimerStartup:
		return "startup"
	case TimerRestart:
		return "restart"
	case TimerDispatch:
		return "dispatch"
	case TimerPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

// TimerSet records which timers are pending.
type TimerSet uint8

func (s TimerSet) Has(k TimerKind) bool         { return s&(1<<k) != 0 }
func (s TimerSet) With(k TimerKind) TimerSet    { return s | 1<<k }
func (s TimerSet) Without(k TimerKind) TimerSet { return s &^ (1 << k) }

// Action is a classified intent waiting for its dispatch delay.
type Action struct {
	Type      model.IntentType
	UserInput string
}

// State is the single record the controller mutates. Step never modifies
// the State it is given; it returns the next one.
type State struct {
	Phase          Phase
	Ready          bool
	Profile        model.Profile
	Capturing      bool
	Turn           uint64
	Transcript     string
	LastAcceptedAt time.Time
	Connection     ConnectionStatus
	SpeechUnlocked bool
	UnlockPending  bool
	Timers         TimerSet
	PendingAction  *Action
}

// NewState returns the session start state: idle, nothing running, speech locked.
func NewState() State {
	return State{Phase: PhaseIdle, Connection: StatusConnected}
}

func (s State) Listening() bool  { return s.Phase == PhaseListening }
func (s State) Processing() bool { return s.Phase == PhaseProcessing }
func (s State) Speaking() bool   { return s.Phase == PhaseSpeaking }
func (s State) Closed() bool     { return s.Phase == PhaseClosed }

// busy reports whether a command is in the pipeline.
func (s State) busy() bool {
	return s.Phase == PhaseProcessing || s.Phase == PhaseSpeaking
}
