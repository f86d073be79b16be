package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
)

type fakeSynth struct {
	mu       sync.Mutex
	voices   []Voice
	spoken   []Utterance
	cbs      []Callbacks
	cancels  int
	speakErr error
	// onSpeak runs synchronously inside Speak, standing in for engine events.
	onSpeak func(cb Callbacks)
}

func (f *fakeSynth) Speak(u Utterance, cb Callbacks) error {
	f.mu.Lock()
	if f.speakErr != nil {
		f.mu.Unlock()
		return f.speakErr
	}
	f.spoken = append(f.spoken, u)
	f.cbs = append(f.cbs, cb)
	hook := f.onSpeak
	f.mu.Unlock()
	if hook != nil {
		hook(cb)
	}
	return nil
}

func (f *fakeSynth) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
}

func (f *fakeSynth) Voices() []Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voices
}

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingListener) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingListener) OnStart()            { r.add("start") }
func (r *recordingListener) OnEnd()              { r.add("end") }
func (r *recordingListener) OnError(code string) { r.add("error:" + code) }

func speechConfig() model.SpeechConfig {
	return model.SpeechConfig{
		Lang:          "en-US",
		Rate:          0.85,
		Pitch:         1,
		Volume:        0.9,
		UnlockTimeout: 50 * time.Millisecond,
		VoiceWait:     0,
	}
}

func TestUnlockOnStartEvent(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{onSpeak: func(cb Callbacks) { cb.OnStart() }}
	out := NewOutput(synth, speechConfig())

	if !out.Unlock(context.Background()) {
		t.Fatalf("expected unlock on start event")
	}
	first := synth.spoken[0]
	if first.Text != "Ready" || first.Volume != 0.1 || first.Rate != 2 {
		t.Fatalf("unexpected unlock utterance %+v", first)
	}
}

func TestUnlockNotAllowed(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{onSpeak: func(cb Callbacks) { cb.OnError(CodeNotAllowed) }}
	out := NewOutput(synth, speechConfig())
	if out.Unlock(context.Background()) {
		t.Fatalf("not-allowed must stay locked")
	}
}

func TestUnlockEngineErrorStaysLocked(t *testing.T) {
	t.Parallel()

	for _, code := range []string{CodeSynthesisFailed, CodeInterrupted, "audio-busy"} {
		synth := &fakeSynth{
			voices:  []Voice{{Name: "Alex", Lang: "en-US"}},
			onSpeak: func(cb Callbacks) { cb.OnError(code) },
		}
		out := NewOutput(synth, speechConfig())
		if out.Unlock(context.Background()) {
			t.Errorf("engine error %q unlocked speech", code)
		}
	}
}

func TestUnlockTimeoutCancelsUtterance(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{voices: []Voice{{Name: "Alex", Lang: "en-US"}}}
	out := NewOutput(synth, speechConfig())
	if !out.Unlock(context.Background()) {
		t.Fatalf("voices available after timeout should unlock")
	}
	synth.mu.Lock()
	defer synth.mu.Unlock()
	if synth.cancels != 1 {
		t.Fatalf("cancels = %d, want the pending utterance cancelled", synth.cancels)
	}
}

func TestUnlockTimeoutFallsBackToVoices(t *testing.T) {
	t.Parallel()

	silent := NewOutput(&fakeSynth{}, speechConfig())
	if silent.Unlock(context.Background()) {
		t.Fatalf("no events and no voices must stay locked")
	}

	withVoices := NewOutput(&fakeSynth{voices: []Voice{{Name: "Alex", Lang: "en-US"}}}, speechConfig())
	if !withVoices.Unlock(context.Background()) {
		t.Fatalf("voices available after timeout should unlock")
	}
}

func TestUnlockEngineRejects(t *testing.T) {
	t.Parallel()

	out := NewOutput(&fakeSynth{speakErr: errors.New("busy")}, speechConfig())
	if out.Unlock(context.Background()) {
		t.Fatalf("rejected utterance must not unlock")
	}
}

func TestSpeakUsesSettingsAndVoice(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{voices: []Voice{
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Samantha", Lang: "en-US"},
		{Name: "Google US English", Lang: "en-US"},
	}}
	out := NewOutput(synth, speechConfig())

	if err := out.Speak(context.Background(), "Opening YouTube for you"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	u := synth.spoken[0]
	if u.Voice != "Google US English" || u.Rate != 0.85 || u.Pitch != 1 || u.Volume != 0.9 || u.Lang != "en-US" {
		t.Fatalf("unexpected utterance %+v", u)
	}
	if synth.cancels == 0 {
		t.Fatalf("Speak must cancel the previous utterance first")
	}
}

func TestSpeakDropsSupersededEvents(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	out := NewOutput(synth, speechConfig())
	l := &recordingListener{}
	out.Listen(l)

	if err := out.Speak(context.Background(), "first"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if err := out.Speak(context.Background(), "second"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	synth.cbs[0].OnError(CodeInterrupted)
	synth.cbs[1].OnStart()
	synth.cbs[1].OnEnd()

	out.Cancel()
	synth.cbs[1].OnEnd()

	want := []string{"start", "end"}
	if len(l.events) != len(want) || l.events[0] != want[0] || l.events[1] != want[1] {
		t.Fatalf("events = %v, want %v", l.events, want)
	}
}

func TestSpeakRejectsEmptyText(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	if err := NewOutput(synth, speechConfig()).Speak(context.Background(), ""); !errors.Is(err, errx.ErrPlayback) {
		t.Fatalf("err = %v, want playback error", err)
	}
	if len(synth.spoken) != 0 {
		t.Fatalf("nothing should be spoken")
	}
}

func TestSpeakWaitsForVoices(t *testing.T) {
	t.Parallel()

	synth := &fakeSynth{}
	cfg := speechConfig()
	cfg.VoiceWait = time.Second
	out := NewOutput(synth, cfg)

	go func() {
		time.Sleep(20 * time.Millisecond)
		synth.mu.Lock()
		synth.voices = []Voice{{Name: "Karen", Lang: "en-AU"}}
		synth.mu.Unlock()
	}()

	if err := out.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if synth.spoken[0].Voice != "Karen" {
		t.Fatalf("expected late voice to be picked, got %q", synth.spoken[0].Voice)
	}
}
