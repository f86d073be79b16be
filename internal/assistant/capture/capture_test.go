package capture

import (
	"errors"
	"testing"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
)

type fakeEngine struct {
	starts, stops int
	startErr      error
	lastOpts      model.CaptureConfig
}

func (f *fakeEngine) StartRecognition(opts model.CaptureConfig) error {
	f.starts++
	f.lastOpts = opts
	return f.startErr
}

func (f *fakeEngine) StopRecognition() error {
	f.stops++
	return nil
}

type recordingListener struct {
	events  []string
	results []string
}

func (r *recordingListener) OnStart()             { r.events = append(r.events, "start") }
func (r *recordingListener) OnEnd()               { r.events = append(r.events, "end") }
func (r *recordingListener) OnError(code string)  { r.events = append(r.events, "error:"+code) }
func (r *recordingListener) OnResult(text string) { r.results = append(r.results, text) }

func TestAdapterRejectsSecondStart(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	a := NewAdapter(eng, model.CaptureConfig{Lang: "en-US", MaxAlternatives: 1})
	a.Listen(&recordingListener{})

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := a.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start = %v, want ErrAlreadyStarted", err)
	}
	if eng.starts != 1 || eng.lastOpts.Lang != "en-US" {
		t.Fatalf("engine starts = %d opts = %+v", eng.starts, eng.lastOpts)
	}

	a.HandleEnd()
	if err := a.Start(); err != nil {
		t.Fatalf("Start after end: %v", err)
	}
}

func TestAdapterStopIdleIsNoop(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	a := NewAdapter(eng, model.CaptureConfig{})
	if err := a.Stop(); err != nil || eng.stops != 0 {
		t.Fatalf("Stop on idle adapter: err=%v stops=%d", err, eng.stops)
	}
}

func TestAdapterStartFailure(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{startErr: errors.New("mic busy")}
	a := NewAdapter(eng, model.CaptureConfig{})
	err := a.Start()
	if !errors.Is(err, errx.ErrCapture) || errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("unexpected start error %v", err)
	}
	if a.Running() {
		t.Fatalf("failed start must not mark the adapter running")
	}
}

func TestAdapterForwardsEvents(t *testing.T) {
	t.Parallel()

	l := &recordingListener{}
	a := NewAdapter(&fakeEngine{}, model.CaptureConfig{})
	a.Listen(l)

	a.HandleStart()
	a.HandleResults([][]string{{"first"}, {"  open youtube  ", "open you tube"}})
	a.HandleResults([][]string{{"   "}})
	a.HandleError(CodeNoSpeech)
	a.HandleEnd()

	if len(l.results) != 1 || l.results[0] != "open youtube" {
		t.Fatalf("results = %v", l.results)
	}
	want := []string{"start", "error:no-speech", "end"}
	if len(l.events) != len(want) {
		t.Fatalf("events = %v", l.events)
	}
	for i := range want {
		if l.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", l.events, want)
		}
	}
}
