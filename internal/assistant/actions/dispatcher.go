package actions

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

// Opener opens a URL on the user's side (a new browser tab for the web host).
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Dispatcher maps intent types to side effects.
type Dispatcher struct {
	opener Opener
	log    zerolog.Logger
}

func New(opener Opener) *Dispatcher {
	return &Dispatcher{opener: opener, log: logx.With("dispatcher")}
}

// URLFor returns the URL an intent opens. ok is false for intents without an external action.
func URLFor(t model.IntentType, userInput string) (target string, ok bool) {
	switch t {
	case model.IntentGoogleSearch:
		return "https://www.google.com/search?q=" + url.QueryEscape(userInput), true
	case model.IntentYouTubeSearch, model.IntentYouTubePlay:
		return "https://www.youtube.com/results?search_query=" + url.QueryEscape(userInput), true
	case model.IntentCalculatorOpen:
		return "https://www.google.com/search?q=calculator", true
	case model.IntentInstagramOpen:
		return "https://www.instagram.com/", true
	case model.IntentFacebookOpen:
		return "https://www.facebook.com/", true
	case model.IntentWeatherShow:
		return "https://www.google.com/search?q=weather", true
	}
	return "", false
}

// Dispatch performs the side effect for t. Time, date and general intents are no-ops.
func (d *Dispatcher) Dispatch(ctx context.Context, t model.IntentType, userInput string) error {
	target, ok := URLFor(t, userInput)
	if !ok {
		d.log.Debug().Str("type", t.String()).Msg("no action for intent")
		return nil
	}
	if d.opener == nil {
		return fmt.Errorf("dispatch %s: no opener", t)
	}
	if err := d.opener.Open(ctx, target); err != nil {
		return fmt.Errorf("dispatch %s: %w", t, err)
	}
	d.log.Info().Str("type", t.String()).Str("url", target).Msg("action dispatched")
	return nil
}
