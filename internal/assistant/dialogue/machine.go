package dialogue

import (
	"strings"
	"time"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/capture"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/speech"
)

const (
	speechEnabledReply = "Speech is now enabled. I'm ready to help you!"
	unlockFailedNotice = "Unable to enable speech. Please check your browser settings."
)

// Discard reasons.
const (
	ReasonNotReady = "not-ready"
	ReasonBusy     = "busy"
	ReasonCooldown = "cooldown"
)

// Step is the transition function of the dialogue controller. It is pure:
// the same state, event, time and config always yield the same result.
func Step(s State, evt Event, now time.Time, cfg model.DialogueConfig) (State, []Effect) {
	if s.Phase == PhaseClosed {
		return s, nil
	}

	t := &transition{s: s, cfg: cfg}
	switch e := evt.(type) {
	case SessionReady:
		t.sessionReady(e)
	case TimerFired:
		t.timerFired(e.Timer)
	case CaptureStarted:
		t.captureStarted()
	case CaptureEnded:
		t.captureEnded()
	case CaptureFailed:
		t.captureFailed(e.Code)
	case TranscriptReceived:
		t.transcript(e.Text, now)
	case Classified:
		t.classified(e)
	case PlaybackStarted:
	case PlaybackEnded:
		t.playbackEnded()
	case PlaybackFailed:
		t.playbackFailed(e.Code)
	case UnlockRequested:
		t.unlockRequested(e.Explicit)
	case UnlockResolved:
		t.unlockResolved(e)
	case Teardown:
		t.teardown()
	}
	return t.s, t.fx
}

type transition struct {
	s   State
	cfg model.DialogueConfig
	fx  []Effect
}

func (t *transition) emit(fx ...Effect) {
	t.fx = append(t.fx, fx...)
}

func (t *transition) schedule(k TimerKind, d time.Duration) {
	t.s.Timers = t.s.Timers.With(k)
	t.emit(Schedule{Timer: k, After: d})
}

func (t *transition) cancel(k TimerKind) {
	if !t.s.Timers.Has(k) {
		return
	}
	t.s.Timers = t.s.Timers.Without(k)
	t.emit(CancelTimer{Timer: k})
}

func (t *transition) status(st ConnectionStatus) {
	if t.s.Connection == st {
		return
	}
	t.s.Connection = st
	t.emit(ShowStatus{Status: st})
}

func (t *transition) stopCapture() {
	t.s.Capturing = false
	t.emit(StopCapture{})
}

// restartLater parks the controller in Idle until the restart timer fires.
func (t *transition) restartLater(d time.Duration) {
	t.s.Phase = PhaseIdle
	t.schedule(TimerRestart, d)
}

func (t *transition) sessionReady(e SessionReady) {
	t.s.Profile = e.Profile
	if t.s.Ready {
		return
	}
	t.s.Ready = true
	if t.s.Phase == PhaseIdle && !t.s.Timers.Has(TimerRestart) {
		t.schedule(TimerStartup, t.cfg.StartupDelay)
	}
}

func (t *transition) timerFired(k TimerKind) {
	if !t.s.Timers.Has(k) {
		return
	}
	t.s.Timers = t.s.Timers.Without(k)

	switch k {
	case TimerStartup, TimerRestart:
		t.resume()
	case TimerDispatch:
		if a := t.s.PendingAction; a != nil {
			t.s.PendingAction = nil
			t.emit(Dispatch{Action: *a})
		}
	case TimerPlayback:
		if t.s.Phase == PhaseSpeaking {
			t.emit(CancelPlayback{}, ShowReply{})
			t.restartLater(t.cfg.SpeechRestartDelay)
		}
	}
}

// resume restarts capture unless a command is in flight.
func (t *transition) resume() {
	if !t.s.Ready || t.s.busy() {
		return
	}
	t.s.Phase = PhaseListening
	if t.s.Capturing {
		return
	}
	t.emit(StartCapture{})
}

func (t *transition) captureStarted() {
	t.s.Capturing = true
	switch t.s.Phase {
	case PhaseIdle:
		t.s.Phase = PhaseListening
	case PhaseProcessing, PhaseSpeaking:
		t.stopCapture()
	}
}

func (t *transition) captureEnded() {
	t.s.Capturing = false
	if t.s.Phase != PhaseListening {
		return
	}
	t.s.Phase = PhaseIdle
	if !t.s.Timers.Has(TimerRestart) {
		t.schedule(TimerRestart, t.cfg.CaptureRestartDelay)
	}
}

func (t *transition) captureFailed(code string) {
	t.s.Capturing = false
	switch code {
	case capture.CodeAborted, capture.CodeNoSpeech:
		return
	case capture.CodeNetwork:
		t.status(StatusDisconnected)
	default:
		t.status(StatusError)
	}
	if t.s.busy() {
		return
	}
	t.restartLater(t.cfg.ErrorRestartDelay)
}

func (t *transition) transcript(text string, now time.Time) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	switch {
	case !t.s.Ready:
		t.emit(Discard{Transcript: text, Reason: ReasonNotReady})
		return
	case t.s.busy():
		t.emit(Discard{Transcript: text, Reason: ReasonBusy})
		return
	case !t.s.LastAcceptedAt.IsZero() && now.Sub(t.s.LastAcceptedAt) < t.cfg.Cooldown:
		t.emit(Discard{Transcript: text, Reason: ReasonCooldown})
		return
	}

	t.s.Turn++
	t.s.Transcript = text
	t.s.LastAcceptedAt = now
	t.s.Phase = PhaseProcessing
	t.cancel(TimerStartup)
	t.cancel(TimerRestart)
	t.stopCapture()
	t.status(StatusConnected)
	t.emit(
		ShowTranscript{Text: text},
		ShowReply{},
		Classify{Turn: t.s.Turn, Transcript: text, Profile: t.s.Profile},
	)
}

func (t *transition) classified(e Classified) {
	if t.s.Phase != PhaseProcessing || e.Turn != t.s.Turn {
		return
	}
	rec := e.Result.Record
	t.emit(
		ShowReply{Text: rec.Response},
		RecordTurn{Transcript: t.s.Transcript, Result: e.Result},
	)
	t.s.PendingAction = &Action{Type: rec.Type, UserInput: rec.UserInput}

	if t.s.SpeechUnlocked && strings.TrimSpace(rec.Response) != "" {
		t.speak(rec.Response)
		t.schedule(TimerDispatch, t.cfg.DispatchDelaySpoken)
		return
	}
	t.restartLater(t.cfg.SilentRestartDelay)
	t.schedule(TimerDispatch, t.cfg.DispatchDelaySilent)
}

func (t *transition) speak(text string) {
	t.s.Phase = PhaseSpeaking
	t.emit(Speak{Text: text})
	if t.cfg.PlaybackTimeout > 0 {
		t.schedule(TimerPlayback, t.cfg.PlaybackTimeout)
	}
}

func (t *transition) playbackEnded() {
	if t.s.Phase != PhaseSpeaking {
		return
	}
	t.cancel(TimerPlayback)
	t.emit(ShowReply{})
	t.restartLater(t.cfg.SpeechRestartDelay)
}

func (t *transition) playbackFailed(code string) {
	if code == speech.CodeNotAllowed {
		t.s.SpeechUnlocked = false
	}
	if t.s.Phase != PhaseSpeaking {
		return
	}
	t.cancel(TimerPlayback)
	t.restartLater(t.cfg.SpeechRestartDelay)
}

func (t *transition) unlockRequested(explicit bool) {
	if t.s.SpeechUnlocked || t.s.UnlockPending {
		return
	}
	if !explicit && t.s.Phase == PhaseProcessing {
		return
	}
	t.s.UnlockPending = true
	t.emit(TryUnlock{Explicit: explicit})
}

func (t *transition) unlockResolved(e UnlockResolved) {
	t.s.UnlockPending = false
	if !e.OK {
		if e.Explicit {
			t.emit(ShowNotice{Text: unlockFailedNotice})
		}
		return
	}
	t.s.SpeechUnlocked = true
	if !e.Explicit || !t.s.Ready || t.s.busy() {
		return
	}

	if t.s.Capturing {
		t.stopCapture()
	}
	t.cancel(TimerStartup)
	t.cancel(TimerRestart)
	t.emit(ShowReply{Text: speechEnabledReply})
	t.speak(speechEnabledReply)
}

func (t *transition) teardown() {
	for k := TimerKind(0); k < numTimers; k++ {
		t.cancel(k)
	}
	t.s.PendingAction = nil
	t.s.Phase = PhaseClosed
	t.s.Capturing = false
	t.emit(StopCapture{}, CancelPlayback{})
}
