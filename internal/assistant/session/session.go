package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/actions"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/capture"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/dialogue"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/speech"
	"github.com/Chative-core-poc-v1/voice/internal/bridge"
	"github.com/Chative-core-poc-v1/voice/internal/telemetry"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

// Config is what every session on this process shares.
type Config struct {
	Profile  model.Profile
	Dialogue model.DialogueConfig
	Speech   model.SpeechConfig
	Capture  model.CaptureConfig
}

// Manager assembles a dialogue session for every connected page.
type Manager struct {
	cfg        Config
	classifier dialogue.Classifier
	history    model.HistoryRepository
	log        zerolog.Logger
}

// NewManager builds a manager. history may be nil when turn history is disabled.
func NewManager(cfg Config, classifier dialogue.Classifier, history model.HistoryRepository) *Manager {
	return &Manager{
		cfg:        cfg,
		classifier: classifier,
		history:    history,
		log:        logx.With("session"),
	}
}

// Serve runs one session on ws until the page disconnects or ctx is done.
func (m *Manager) Serve(ctx context.Context, ws *websocket.Conn) error {
	id := uuid.NewString()
	log := m.log.With().Str("session_id", id).Logger()

	conn := bridge.NewConn(ws, id)
	adapter := capture.NewAdapter(conn, m.cfg.Capture)
	output := speech.NewOutput(conn, m.cfg.Speech)
	ctrl := dialogue.New(id, m.cfg.Dialogue, dialogue.Deps{
		Capture:    adapter,
		Speech:     output,
		Classifier: m.classifier,
		Dispatcher: actions.New(conn),
		Display:    conn,
		History:    m.history,
	})
	adapter.Listen(ctrl.CaptureListener())
	output.Listen(ctrl.SpeechListener())
	conn.Bind(adapter, ctrl)

	telemetry.ActiveSessions.Inc()
	defer telemetry.ActiveSessions.Dec()
	log.Info().Msg("page connected")

	go func() {
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("dialogue stopped")
		}
	}()
	ctrl.Start(m.cfg.Profile)

	err := conn.Serve(ctx)
	ctrl.Close()
	<-ctrl.Done()
	log.Info().Msg("page disconnected")
	return err
}

// History returns up to limit recent turns of a session and the stored total.
// The bool is false when turn history is disabled.
func (m *Manager) History(ctx context.Context, sessionID string, limit int) (model.HistoryPage, bool, error) {
	page := model.HistoryPage{SessionID: sessionID, Turns: []model.Turn{}}
	if m.history == nil {
		return page, false, nil
	}
	turns, err := m.history.Recent(ctx, sessionID, limit)
	if err != nil {
		return page, true, err
	}
	total, err := m.history.Count(ctx, sessionID)
	if err != nil {
		return page, true, err
	}
	if turns != nil {
		page.Turns = turns
	}
	page.Total = total
	return page, true, nil
}

// ClearHistory drops the stored turns of a session.
func (m *Manager) ClearHistory(ctx context.Context, sessionID string) (bool, error) {
	if m.history == nil {
		return false, nil
	}
	if err := m.history.Clear(ctx, sessionID); err != nil {
		return true, err
	}
	m.log.Info().Str("session_id", sessionID).Msg("session history cleared")
	return true, nil
}
