package dialogue

import (
	"time"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
)

// Effect is a side effect requested by a transition. The controller executes them in order.
type Effect interface{ effect() }

type (
	StartCapture struct{}
	StopCapture  struct{}

	Classify struct {
		Turn       uint64
		Transcript string
		Profile    model.Profile
	}

	Speak          struct{ Text string }
	CancelPlayback struct{}
	TryUnlock      struct{ Explicit bool }
	Dispatch       struct{ Action Action }

	// Schedule starts Timer, replacing a pending timer of the same kind.
	Schedule struct {
		Timer TimerKind
		After time.Duration
	}
	CancelTimer struct{ Timer TimerKind }

	ShowTranscript struct{ Text string }
	ShowReply      struct{ Text string }
	ShowStatus     struct{ Status ConnectionStatus }
	ShowNotice     struct{ Text string }

	RecordTurn struct {
		Transcript string
		Result     model.Classification
	}

	// Discard reports a transcript that was dropped without classification.
	Discard struct {
		Transcript string
		Reason     string
	}
)

func (StartCapture) effect()   {}
func (StopCapture) effect()    {}
func (Classify) effect()       {}
func (Speak) effect()          {}
func (CancelPlayback) effect() {}
func (TryUnlock) effect()      {}
func (Dispatch) effect()       {}
func (Schedule) effect()       {}
func (CancelTimer) effect()    {}
func (ShowTranscript) effect() {}
func (ShowReply) effect()      {}
func (ShowStatus) effect()     {}
func (ShowNotice) effect()     {}
func (RecordTurn) effect()     {}
func (Discard) effect()        {}
