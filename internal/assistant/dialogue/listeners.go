package dialogue

import (
	"github.com/Chative-core-poc-v1/voice/internal/assistant/capture"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/speech"
	"github.com/Chative-core-poc-v1/voice/internal/telemetry"
)

type captureListener struct{ c *Controller }

// CaptureListener turns capture adapter callbacks into controller events.
func (c *Controller) CaptureListener() capture.Listener { return captureListener{c} }

func (l captureListener) OnStart() { l.c.Post(CaptureStarted{}) }
func (l captureListener) OnEnd()   { l.c.Post(CaptureEnded{}) }
func (l captureListener) OnError(code string) {
	telemetry.CaptureErrorsTotal.WithLabelValues(code).Inc()
	l.c.Post(CaptureFailed{Code: code})
}
func (l captureListener) OnResult(transcript string) { l.c.Post(TranscriptReceived{Text: transcript}) }

type speechListener struct{ c *Controller }

// SpeechListener turns speech output callbacks into controller events.
func (c *Controller) SpeechListener() speech.Listener { return speechListener{c} }

func (l speechListener) OnStart() { l.c.Post(PlaybackStarted{}) }
func (l speechListener) OnEnd()   { l.c.Post(PlaybackEnded{}) }
func (l speechListener) OnError(code string) {
	telemetry.PlaybackErrorsTotal.WithLabelValues(code).Inc()
	l.c.Post(PlaybackFailed{Code: code})
}
