package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/speech"
)

// Kind names a bridge message.
type Kind string

// Server to page.
const (
	KindCaptureStart Kind = "capture.start"
	KindCaptureStop  Kind = "capture.stop"
	KindSpeechSpeak  Kind = "speech.speak"
	KindSpeechCancel Kind = "speech.cancel"
	KindUITranscript Kind = "ui.transcript"
	KindUIReply      Kind = "ui.reply"
	KindUIStatus     Kind = "ui.status"
	KindUINotice     Kind = "ui.notice"
	KindActionOpen   Kind = "action.open"
)

// Page to server.
const (
	KindCaptureStarted Kind = "capture.started"
	KindCaptureEnded   Kind = "capture.ended"
	KindCaptureError   Kind = "capture.error"
	KindCaptureResult  Kind = "capture.result"
	KindSpeechStarted  Kind = "speech.started"
	KindSpeechEnded    Kind = "speech.ended"
	KindSpeechError    Kind = "speech.error"
	KindSpeechVoices   Kind = "speech.voices"
	KindUIGesture      Kind = "ui.gesture"
	KindEnableSpeech   Kind = "ui.enable_speech"
)

// Envelope is the frame of every message on the socket.
type Envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type (
	CaptureStartData struct {
		Options model.CaptureConfig `json:"options"`
	}

	SpeakData struct {
		ID        string           `json:"id"`
		Utterance speech.Utterance `json:"utterance"`
	}

	TextData struct {
		Text string `json:"text"`
	}

	StatusData struct {
		Status string `json:"status"`
	}

	OpenData struct {
		URL string `json:"url"`
	}

	// CodeData carries engine error codes. ID is set for speech events.
	CodeData struct {
		ID   string `json:"id,omitempty"`
		Code string `json:"code,omitempty"`
	}

	// ResultData holds recognition results, each a list of alternatives.
	ResultData struct {
		Results [][]string `json:"results"`
	}

	VoicesData struct {
		Voices []speech.Voice `json:"voices"`
	}
)

func encode(kind Kind, data any) ([]byte, error) {
	env := Envelope{Type: kind}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", kind, err)
		}
		env.Data = b
	}
	return json.Marshal(env)
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("decode %s: missing data", env.Type)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return nil
}
