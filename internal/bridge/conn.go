package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/speech"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 32
)

// ErrClosed is returned by operations on a closed bridge connection.
var ErrClosed = errors.New("bridge: connection closed")

// CaptureSink receives recognition events from the page.
type CaptureSink interface {
	HandleStart()
	HandleEnd()
	HandleError(code string)
	HandleResults(results [][]string)
}

// GestureSink receives user interactions that may unlock speech.
type GestureSink interface {
	RequestUnlock(explicit bool)
}

// Conn is one browser page. It serves as the speech recognition engine, the
// speech synthesizer, the URL opener and the display of a dialogue session.
type Conn struct {
	ws  *websocket.Conn
	log zerolog.Logger

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	capture  CaptureSink
	gestures GestureSink
	pending  map[string]speech.Callbacks
	voices   []speech.Voice
}

func NewConn(ws *websocket.Conn, sessionID string) *Conn {
	return &Conn{
		ws:      ws,
		log:     logx.With("bridge").With().Str("session_id", sessionID).Logger(),
		send:    make(chan []byte, sendBuffer),
		closed:  make(chan struct{}),
		pending: make(map[string]speech.Callbacks),
	}
}

// Bind routes page events to the session.
func (c *Conn) Bind(capture CaptureSink, gestures GestureSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capture = capture
	c.gestures = gestures
}

// Serve pumps messages until the page disconnects or ctx is done.
func (c *Conn) Serve(ctx context.Context) error {
	go c.writePump()
	stop := context.AfterFunc(ctx, c.Close)
	defer stop()
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
				return err
			}
			return nil
		}
		c.receive(data)
	}
}

// Close ends the connection. It is safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn().Err(err).Msg("websocket write failed")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Conn) post(kind Kind, data any) error {
	msg, err := encode(kind, data)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}

func (c *Conn) receive(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn().Err(err).Msg("invalid bridge message")
		return
	}

	c.mu.Lock()
	capture, gestures := c.capture, c.gestures
	c.mu.Unlock()

	switch env.Type {
	case KindCaptureStarted:
		if capture != nil {
			capture.HandleStart()
		}
	case KindCaptureEnded:
		if capture != nil {
			capture.HandleEnd()
		}
	case KindCaptureError:
		var d CodeData
		if err := decode(env, &d); err != nil {
			c.log.Warn().Err(err).Msg("invalid bridge message")
			return
		}
		if capture != nil {
			capture.HandleError(d.Code)
		}
	case KindCaptureResult:
		var d ResultData
		if err := decode(env, &d); err != nil {
			c.log.Warn().Err(err).Msg("invalid bridge message")
			return
		}
		if capture != nil {
			capture.HandleResults(d.Results)
		}
	case KindSpeechStarted, KindSpeechEnded, KindSpeechError:
		c.speechEvent(env)
	case KindSpeechVoices:
		var d VoicesData
		if err := decode(env, &d); err != nil {
			c.log.Warn().Err(err).Msg("invalid bridge message")
			return
		}
		c.mu.Lock()
		c.voices = d.Voices
		c.mu.Unlock()
		c.log.Debug().Int("count", len(d.Voices)).Msg("voices updated")
	case KindUIGesture, KindEnableSpeech:
		if gestures != nil {
			gestures.RequestUnlock(env.Type == KindEnableSpeech)
		}
	default:
		c.log.Debug().Str("type", string(env.Type)).Msg("unknown bridge message")
	}
}

func (c *Conn) speechEvent(env Envelope) {
	var d CodeData
	if err := decode(env, &d); err != nil {
		c.log.Warn().Err(err).Msg("invalid bridge message")
		return
	}

	c.mu.Lock()
	cb, ok := c.pending[d.ID]
	if ok && env.Type != KindSpeechStarted {
		delete(c.pending, d.ID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	switch env.Type {
	case KindSpeechStarted:
		if cb.OnStart != nil {
			cb.OnStart()
		}
	case KindSpeechEnded:
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	case KindSpeechError:
		if cb.OnError != nil {
			cb.OnError(d.Code)
		}
	}
}

// StartRecognition asks the page to start one recognition.
func (c *Conn) StartRecognition(opts model.CaptureConfig) error {
	return c.post(KindCaptureStart, CaptureStartData{Options: opts})
}

func (c *Conn) StopRecognition() error {
	return c.post(KindCaptureStop, nil)
}

// Speak queues an utterance on the page. Callbacks fire as the page reports progress.
func (c *Conn) Speak(u speech.Utterance, cb speech.Callbacks) error {
	id := uuid.NewString()
	c.mu.Lock()
	c.pending[id] = cb
	c.mu.Unlock()

	if err := c.post(KindSpeechSpeak, SpeakData{ID: id, Utterance: u}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Conn) Cancel() {
	if err := c.post(KindSpeechCancel, nil); err != nil && !errors.Is(err, ErrClosed) {
		c.log.Warn().Err(err).Msg("speech cancel failed")
	}
}

// Voices returns the last voice list reported by the page.
func (c *Conn) Voices() []speech.Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]speech.Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Open asks the page to open target in a new tab.
func (c *Conn) Open(_ context.Context, target string) error {
	return c.post(KindActionOpen, OpenData{URL: target})
}

func (c *Conn) ShowTranscript(text string) { c.show(KindUITranscript, TextData{Text: text}) }
func (c *Conn) ShowReply(text string)      { c.show(KindUIReply, TextData{Text: text}) }
func (c *Conn) ShowStatus(status string)   { c.show(KindUIStatus, StatusData{Status: status}) }
func (c *Conn) ShowNotice(text string)     { c.show(KindUINotice, TextData{Text: text}) }

func (c *Conn) show(kind Kind, data any) {
	if err := c.post(kind, data); err != nil && !errors.Is(err, ErrClosed) {
		c.log.Warn().Err(err).Str("type", string(kind)).Msg("display update failed")
	}
}
