package model

import "time"

// ================ Config ================
type ClassifierConfig struct {
	Model          string        `envconfig:"CLASSIFIER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int           `envconfig:"CLASSIFIER_MAX_TOKENS" default:"1024"`
	Temperature    float32       `envconfig:"CLASSIFIER_TEMPERATURE" default:"0.7"`
	TopP           float32       `envconfig:"CLASSIFIER_TOP_P" default:"0.95"`
	TopK           int32         `envconfig:"CLASSIFIER_TOP_K" default:"40"`
	ThinkingBudget int32         `envconfig:"CLASSIFIER_THINKING_BUDGET" default:"0"`
	Timeout        time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"15s"`
	Breaker        BreakerConfig
}

type BreakerConfig struct {
	MaxRequests  uint32        `envconfig:"CLASSIFIER_BREAKER_MAX_REQUESTS" default:"3"`
	Interval     time.Duration `envconfig:"CLASSIFIER_BREAKER_INTERVAL" default:"1m"`
	Timeout      time.Duration `envconfig:"CLASSIFIER_BREAKER_TIMEOUT" default:"30s"`
	FailureRatio float64       `envconfig:"CLASSIFIER_BREAKER_FAILURE_RATIO" default:"0.6"`
	MinRequests  uint32        `envconfig:"CLASSIFIER_BREAKER_MIN_REQUESTS" default:"3"`
}

type DialogueConfig struct {
	StartupDelay        time.Duration `envconfig:"DIALOGUE_STARTUP_DELAY" default:"1500ms"`
	Cooldown            time.Duration `envconfig:"DIALOGUE_COOLDOWN" default:"3000ms"`
	CaptureRestartDelay time.Duration `envconfig:"DIALOGUE_CAPTURE_RESTART_DELAY" default:"2000ms"`
	ErrorRestartDelay   time.Duration `envconfig:"DIALOGUE_ERROR_RESTART_DELAY" default:"3000ms"`
	SilentRestartDelay  time.Duration `envconfig:"DIALOGUE_SILENT_RESTART_DELAY" default:"1000ms"`
	SpeechRestartDelay  time.Duration `envconfig:"DIALOGUE_SPEECH_RESTART_DELAY" default:"1500ms"`
	DispatchDelaySpoken time.Duration `envconfig:"DIALOGUE_DISPATCH_DELAY_SPOKEN" default:"500ms"`
	DispatchDelaySilent time.Duration `envconfig:"DIALOGUE_DISPATCH_DELAY_SILENT" default:"100ms"`
	PlaybackTimeout     time.Duration `envconfig:"DIALOGUE_PLAYBACK_TIMEOUT" default:"30s"`
}

// DefaultDialogueConfig mirrors the envconfig defaults for callers that skip env processing.
func DefaultDialogueConfig() DialogueConfig {
	return DialogueConfig{
		StartupDelay:        1500 * time.Millisecond,
		Cooldown:            3000 * time.Millisecond,
		CaptureRestartDelay: 2000 * time.Millisecond,
		ErrorRestartDelay:   3000 * time.Millisecond,
		SilentRestartDelay:  1000 * time.Millisecond,
		SpeechRestartDelay:  1500 * time.Millisecond,
		DispatchDelaySpoken: 500 * time.Millisecond,
		DispatchDelaySilent: 100 * time.Millisecond,
		PlaybackTimeout:     30 * time.Second,
	}
}

type SpeechConfig struct {
	Lang          string        `envconfig:"SPEECH_LANG" default:"en-US" json:"lang"`
	Rate          float64       `envconfig:"SPEECH_RATE" default:"0.85" json:"rate"`
	Pitch         float64       `envconfig:"SPEECH_PITCH" default:"1" json:"pitch"`
	Volume        float64       `envconfig:"SPEECH_VOLUME" default:"0.9" json:"volume"`
	UnlockTimeout time.Duration `envconfig:"SPEECH_UNLOCK_TIMEOUT" default:"2000ms" json:"-"`
	VoiceWait     time.Duration `envconfig:"SPEECH_VOICE_WAIT" default:"2000ms" json:"-"`
}

type CaptureConfig struct {
	Lang            string `envconfig:"CAPTURE_LANG" default:"en-US" json:"lang"`
	Continuous      bool   `envconfig:"CAPTURE_CONTINUOUS" default:"false" json:"continuous"`
	InterimResults  bool   `envconfig:"CAPTURE_INTERIM_RESULTS" default:"false" json:"interimResults"`
	MaxAlternatives int    `envconfig:"CAPTURE_MAX_ALTERNATIVES" default:"1" json:"maxAlternatives"`
}

type HistoryConfig struct {
	Enabled  bool          `envconfig:"HISTORY_ENABLED" default:"false"`
	TTL      time.Duration `envconfig:"HISTORY_TTL" default:"24h"`
	MaxTurns int           `envconfig:"HISTORY_MAX_TURNS" default:"50"`
}
