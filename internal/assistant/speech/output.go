package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

// Error codes reported by synthesis engines.
const (
	CodeNotAllowed      = "not-allowed"
	CodeInterrupted     = "interrupted"
	CodeSynthesisFailed = "synthesis-failed"
)

const (
	unlockText   = "Ready"
	unlockVolume = 0.1
	unlockRate   = 2

	voicePollInterval = 100 * time.Millisecond
)

// Utterance is one synthesis request.
type Utterance struct {
	Text   string  `json:"text"`
	Lang   string  `json:"lang"`
	Voice  string  `json:"voice,omitempty"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// Callbacks are invoked by the engine for a single utterance.
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	OnError func(code string)
}

// Synthesizer is the host text-to-speech engine.
type Synthesizer interface {
	Speak(u Utterance, cb Callbacks) error
	Cancel()
	Voices() []Voice
}

// Listener receives playback events for utterances spoken through Output.Speak.
type Listener interface {
	OnStart()
	OnEnd()
	OnError(code string)
}

// Output speaks replies through a Synthesizer and runs the unlock check.
// Events of utterances superseded by a newer Speak or Cancel are dropped.
type Output struct {
	synth Synthesizer
	cfg   model.SpeechConfig
	log   zerolog.Logger

	mu       sync.Mutex
	listener Listener
	gen      uint64
}

func NewOutput(synth Synthesizer, cfg model.SpeechConfig) *Output {
	return &Output{synth: synth, cfg: cfg, log: logx.With("speech")}
}

// Listen sets the playback listener.
func (o *Output) Listen(l Listener) {
	o.mu.Lock()
	o.listener = l
	o.mu.Unlock()
}

// Unlock plays a near silent utterance. It reports true when the engine starts or
// finishes it, or, after the unlock timeout, when voices are available.
// Any engine error keeps speech locked.
func (o *Output) Unlock(ctx context.Context) bool {
	done := make(chan bool, 1)
	report := func(ok bool) {
		select {
		case done <- ok:
		default:
		}
	}

	err := o.synth.Speak(Utterance{
		Text:   unlockText,
		Lang:   o.cfg.Lang,
		Rate:   unlockRate,
		Pitch:  1,
		Volume: unlockVolume,
	}, Callbacks{
		OnStart: func() { report(true) },
		OnEnd:   func() { report(true) },
		OnError: func(string) { report(false) },
	})
	if err != nil {
		o.log.Warn().Err(err).Msg("unlock utterance rejected")
		return false
	}

	timer := time.NewTimer(o.cfg.UnlockTimeout)
	defer timer.Stop()

	select {
	case ok := <-done:
		o.log.Debug().Bool("unlocked", ok).Msg("unlock utterance finished")
		return ok
	case <-timer.C:
		o.synth.Cancel()
		ok := len(o.synth.Voices()) > 0
		o.log.Debug().Bool("unlocked", ok).Msg("unlock utterance timed out, using voice availability")
		return ok
	case <-ctx.Done():
		return false
	}
}

// Speak cancels any current utterance and speaks text with the configured voice settings.
func (o *Output) Speak(ctx context.Context, text string) error {
	if text == "" {
		return errx.New(errors.New("empty text"), errx.KindPlayback, "speak")
	}
	o.Cancel()

	voices, err := o.waitVoices(ctx)
	if err != nil {
		return err
	}

	u := Utterance{
		Text:   text,
		Lang:   o.cfg.Lang,
		Rate:   o.cfg.Rate,
		Pitch:  o.cfg.Pitch,
		Volume: o.cfg.Volume,
	}
	if v, ok := SelectVoice(voices, o.cfg.Lang); ok {
		u.Voice = v.Name
	}

	gen := o.next()
	cb := Callbacks{
		OnStart: func() { o.forward(gen, func(l Listener) { l.OnStart() }) },
		OnEnd:   func() { o.forward(gen, func(l Listener) { l.OnEnd() }) },
		OnError: func(code string) { o.forward(gen, func(l Listener) { l.OnError(code) }) },
	}
	if err := o.synth.Speak(u, cb); err != nil {
		return errx.New(err, errx.KindPlayback, "speak")
	}
	o.log.Debug().Str("voice", u.Voice).Int("len", len(text)).Msg("utterance queued")
	return nil
}

// Cancel stops playback and silences events of the cancelled utterance.
func (o *Output) Cancel() {
	o.next()
	o.synth.Cancel()
}

func (o *Output) next() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	return o.gen
}

func (o *Output) forward(gen uint64, fn func(Listener)) {
	o.mu.Lock()
	current, l := o.gen, o.listener
	o.mu.Unlock()
	if gen != current || l == nil {
		return
	}
	fn(l)
}

// waitVoices polls the engine until it lists voices or VoiceWait elapses.
// An empty list after the wait is not an error: the engine default voice is used.
func (o *Output) waitVoices(ctx context.Context) ([]Voice, error) {
	if voices := o.synth.Voices(); len(voices) > 0 || o.cfg.VoiceWait <= 0 {
		return voices, nil
	}

	deadline := time.NewTimer(o.cfg.VoiceWait)
	defer deadline.Stop()
	tick := time.NewTicker(voicePollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			o.log.Debug().Dur("waited", o.cfg.VoiceWait).Msg("no voices listed, using engine default")
			return nil, nil
		case <-tick.C:
			if voices := o.synth.Voices(); len(voices) > 0 {
				return voices, nil
			}
		}
	}
}
