package dialogue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/capture"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
)

type manualTimer struct {
	at      time.Time
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct {
	now    time.Time
	timers []*manualTimer
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// due pops the timers that expire by now, earliest first.
func (c *manualClock) due() []*manualTimer {
	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
	var out, keep []*manualTimer
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.at.After(c.now):
			t.stopped = true
			out = append(out, t)
		default:
			keep = append(keep, t)
		}
	}
	c.timers = keep
	return out
}

type fakeCapture struct {
	starts, stops int
	startErr      error
}

func (f *fakeCapture) Start() error { f.starts++; return f.startErr }
func (f *fakeCapture) Stop() error  { f.stops++; return nil }

type fakeSpeech struct {
	spoken  []string
	unlock  bool
	cancels int
}

func (f *fakeSpeech) Speak(_ context.Context, text string) error {
	f.spoken = append(f.spoken, text)
	return nil
}
func (f *fakeSpeech) Unlock(context.Context) bool { return f.unlock }
func (f *fakeSpeech) Cancel()                     { f.cancels++ }

type fakeClassifier struct {
	res   model.Classification
	calls []string
}

func (f *fakeClassifier) Classify(_ context.Context, transcript string, sc model.SessionContext) model.Classification {
	f.calls = append(f.calls, transcript)
	return f.res
}

type fakeDispatcher struct {
	actions []Action
}

func (f *fakeDispatcher) Dispatch(_ context.Context, t model.IntentType, in string) error {
	f.actions = append(f.actions, Action{Type: t, UserInput: in})
	return nil
}

type fakeDisplay struct {
	transcripts, replies, statuses, notices []string
}

func (f *fakeDisplay) ShowTranscript(s string) { f.transcripts = append(f.transcripts, s) }
func (f *fakeDisplay) ShowReply(s string)      { f.replies = append(f.replies, s) }
func (f *fakeDisplay) ShowStatus(s string)     { f.statuses = append(f.statuses, s) }
func (f *fakeDisplay) ShowNotice(s string)     { f.notices = append(f.notices, s) }

type fakeHistory struct {
	mu    sync.Mutex
	turns []model.Turn
}

func (f *fakeHistory) Append(_ context.Context, _ string, t model.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, t)
	return nil
}

func (f *fakeHistory) Recent(context.Context, string, int) ([]model.Turn, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeHistory) Count(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.turns), nil
}

func (f *fakeHistory) Clear(context.Context, string) error { return nil }

type harness struct {
	t       *testing.T
	c       *Controller
	clock   *manualClock
	capture *fakeCapture
	speech  *fakeSpeech
	cls     *fakeClassifier
	disp    *fakeDispatcher
	display *fakeDisplay
	history *fakeHistory
	pending []func()
}

func newHarness(t *testing.T, res model.Classification) *harness {
	t.Helper()

	h := &harness{
		t:       t,
		clock:   &manualClock{now: t0},
		capture: &fakeCapture{},
		speech:  &fakeSpeech{unlock: true},
		cls:     &fakeClassifier{res: res},
		disp:    &fakeDispatcher{},
		display: &fakeDisplay{},
		history: &fakeHistory{},
	}
	h.c = New("s-1", model.DefaultDialogueConfig(), Deps{
		Capture:    h.capture,
		Speech:     h.speech,
		Classifier: h.cls,
		Dispatcher: h.disp,
		Display:    h.display,
		History:    h.history,
		Clock:      h.clock,
	})
	h.c.async = func(f func()) { h.pending = append(h.pending, f) }
	return h
}

// settle runs queued async work and posted events until nothing is left.
func (h *harness) settle() {
	for {
		switch {
		case len(h.pending) > 0:
			f := h.pending[0]
			h.pending = h.pending[1:]
			f()
		case len(h.c.events) > 0:
			h.c.handle(<-h.c.events)
		default:
			return
		}
	}
}

func (h *harness) send(evt Event) {
	h.c.handle(evt)
	h.settle()
}

func (h *harness) advance(d time.Duration) {
	h.clock.now = h.clock.now.Add(d)
	for _, tm := range h.clock.due() {
		tm.f()
		h.settle()
	}
}

func TestControllerCommandFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.Classification{
		Record: model.IntentRecord{Type: model.IntentYouTubeSearch, UserInput: "cats", Response: "Searching YouTube for cats"},
		Source: model.SourceRemote,
	})

	h.send(SessionReady{Profile: model.Profile{AssistantName: "Jarvis", OwnerName: "Sam"}})
	h.advance(time.Second)
	if h.capture.starts != 0 {
		t.Fatalf("capture started before startup delay")
	}
	h.advance(500 * time.Millisecond)
	if h.capture.starts != 1 {
		t.Fatalf("capture starts = %d, want 1", h.capture.starts)
	}

	h.send(CaptureStarted{})
	h.send(TranscriptReceived{Text: "Jarvis search cats on YouTube"})

	if len(h.cls.calls) != 1 || h.cls.calls[0] != "Jarvis search cats on YouTube" {
		t.Fatalf("classifier calls = %v", h.cls.calls)
	}
	if h.capture.stops != 1 {
		t.Fatalf("capture stops = %d, want 1", h.capture.stops)
	}
	if len(h.speech.spoken) != 0 {
		t.Fatalf("spoke while locked: %v", h.speech.spoken)
	}
	if got := h.display.replies[len(h.display.replies)-1]; got != "Searching YouTube for cats" {
		t.Fatalf("reply = %q", got)
	}
	if len(h.history.turns) != 1 || h.history.turns[0].Record.UserInput != "cats" {
		t.Fatalf("history = %+v", h.history.turns)
	}

	h.advance(100 * time.Millisecond)
	if len(h.disp.actions) != 1 || h.disp.actions[0] != (Action{Type: model.IntentYouTubeSearch, UserInput: "cats"}) {
		t.Fatalf("dispatched = %+v", h.disp.actions)
	}

	h.advance(900 * time.Millisecond)
	if h.capture.starts != 2 {
		t.Fatalf("capture not restarted after silent reply, starts = %d", h.capture.starts)
	}
}

func TestControllerSpeaksWhenUnlocked(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.Classification{
		Record: model.IntentRecord{Type: model.IntentGeneral, UserInput: "hello", Response: "Hello!"},
		Source: model.SourceFallback,
	})
	h.send(SessionReady{})
	h.advance(1500 * time.Millisecond)
	h.send(CaptureStarted{})

	h.send(UnlockRequested{})
	if !h.c.State().SpeechUnlocked {
		t.Fatalf("speech not unlocked")
	}

	h.send(TranscriptReceived{Text: "hello"})
	if len(h.speech.spoken) != 1 || h.speech.spoken[0] != "Hello!" {
		t.Fatalf("spoken = %v", h.speech.spoken)
	}
	if !h.c.State().Speaking() {
		t.Fatalf("phase = %v", h.c.State().Phase)
	}

	h.advance(10 * time.Second)
	if h.capture.starts != 1 {
		t.Fatalf("capture restarted during playback")
	}

	h.send(PlaybackEnded{})
	h.advance(1500 * time.Millisecond)
	if h.capture.starts != 2 {
		t.Fatalf("capture starts = %d, want 2", h.capture.starts)
	}
}

func TestControllerExplicitUnlockFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.Classification{})
	h.speech.unlock = false
	h.send(SessionReady{})

	h.send(UnlockRequested{Explicit: true})
	if len(h.display.notices) != 1 || h.display.notices[0] != unlockFailedNotice {
		t.Fatalf("notices = %v", h.display.notices)
	}
	if h.c.State().SpeechUnlocked {
		t.Fatalf("speech unlocked after failed attempt")
	}
}

func TestControllerDropsSupersededTimer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.Classification{})
	h.send(SessionReady{})
	h.advance(1500 * time.Millisecond)
	h.send(CaptureStarted{})

	h.send(CaptureEnded{})
	if len(h.clock.timers) != 1 {
		t.Fatalf("timers = %d, want the restart timer", len(h.clock.timers))
	}
	first := h.clock.timers[0]

	h.send(CaptureFailed{Code: capture.CodeNetwork})
	if !first.stopped {
		t.Fatalf("superseded restart timer still armed")
	}

	// the old callback fires anyway, as a racing time.AfterFunc would
	first.f()
	h.settle()
	if h.capture.starts != 1 {
		t.Fatalf("stale timer restarted capture")
	}

	h.advance(3 * time.Second)
	if h.capture.starts != 2 {
		t.Fatalf("capture starts = %d, want 2", h.capture.starts)
	}
	if got := h.display.statuses; len(got) != 1 || got[0] != string(StatusDisconnected) {
		t.Fatalf("statuses = %v", got)
	}
}

func TestControllerStartFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.Classification{})
	h.capture.startErr = errors.New("boom")
	h.send(SessionReady{})
	h.advance(1500 * time.Millisecond)

	if s := h.c.State(); s.Connection != StatusError || s.Phase != PhaseIdle {
		t.Fatalf("state = %+v", s)
	}

	h.capture.startErr = capture.ErrAlreadyStarted
	h.advance(3 * time.Second)
	if s := h.c.State(); !s.Listening() {
		t.Fatalf("phase = %v, want listening", s.Phase)
	}
}

func TestControllerTeardownWhileProcessing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.Classification{
		Record: model.IntentRecord{Type: model.IntentGoogleSearch, UserInput: "cats", Response: "Searching"},
		Source: model.SourceRemote,
	})
	h.send(SessionReady{})
	h.advance(1500 * time.Millisecond)
	h.send(CaptureStarted{})

	h.c.handle(TranscriptReceived{Text: "google cats"})
	if len(h.pending) != 1 {
		t.Fatalf("classification not in flight")
	}
	h.c.handle(Teardown{})
	h.settle()
	h.advance(time.Minute)

	if len(h.disp.actions) != 0 {
		t.Fatalf("dispatched after teardown: %+v", h.disp.actions)
	}
	if h.capture.starts != 1 {
		t.Fatalf("capture restarted after teardown")
	}
	if !h.c.State().Closed() {
		t.Fatalf("phase = %v", h.c.State().Phase)
	}
}

func TestControllerRunStopsOnContext(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.Classification{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.c.Run(ctx) }()

	h.c.Start(model.Profile{})
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	<-h.c.Done()

	// posting after shutdown must not block
	h.c.Post(CaptureStarted{})
	h.c.Close()

	if h.capture.stops == 0 || h.speech.cancels == 0 {
		t.Fatalf("teardown did not release engines: stops=%d cancels=%d", h.capture.stops, h.speech.cancels)
	}
}
