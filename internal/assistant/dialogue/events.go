package dialogue

import "github.com/Chative-core-poc-v1/voice/internal/assistant/model"

// Event is anything the controller reacts to.
type Event interface{ event() }

type (
	// SessionReady arrives once the profile is known.
	SessionReady struct{ Profile model.Profile }

	CaptureStarted     struct{}
	CaptureEnded       struct{}
	CaptureFailed      struct{ Code string }
	TranscriptReceived struct{ Text string }

	// Classified carries the classifier answer for Turn.
	Classified struct {
		Turn   uint64
		Result model.Classification
	}

	PlaybackStarted struct{}
	PlaybackEnded   struct{}
	PlaybackFailed  struct{ Code string }

	// UnlockRequested follows a user gesture. Explicit is set for the
	// dedicated enable-speech control.
	UnlockRequested struct{ Explicit bool }
	UnlockResolved  struct{ OK, Explicit bool }

	TimerFired struct {
		Timer TimerKind
		gen   uint64
	}

	Teardown struct{}
)

func (SessionReady) event()       {}
func (CaptureStarted) event()     {}
func (CaptureEnded) event()       {}
func (CaptureFailed) event()      {}
func (TranscriptReceived) event() {}
func (Classified) event()         {}
func (PlaybackStarted) event()    {}
func (PlaybackEnded) event()      {}
func (PlaybackFailed) event()     {}
func (UnlockRequested) event()    {}
func (UnlockResolved) event()     {}
func (TimerFired) event()         {}
func (Teardown) event()           {}
