package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
)

// IntentType is the action a classified command maps to.
type IntentType string

const (
	IntentGeneral        IntentType = "general"
	IntentGoogleSearch   IntentType = "google-search"
	IntentYouTubeSearch  IntentType = "youtube-search"
	IntentYouTubePlay    IntentType = "youtube-play"
	IntentCalculatorOpen IntentType = "calculator-open"
	IntentInstagramOpen  IntentType = "instagram-open"
	IntentFacebookOpen   IntentType = "facebook-open"
	IntentWeatherShow    IntentType = "weather-show"
	IntentGetTime        IntentType = "get-time"
	IntentGetDate        IntentType = "get-date"
	IntentGetDay         IntentType = "get-day"
	IntentGetMonth       IntentType = "get-month"
)

var intentTypes = []IntentType{
	IntentGeneral,
	IntentGoogleSearch,
	IntentYouTubeSearch,
	IntentYouTubePlay,
	IntentCalculatorOpen,
	IntentInstagramOpen,
	IntentFacebookOpen,
	IntentWeatherShow,
	IntentGetTime,
	IntentGetDate,
	IntentGetDay,
	IntentGetMonth,
}

// IntentTypes returns every allowed intent type in prompt order.
func IntentTypes() []IntentType {
	out := make([]IntentType, len(intentTypes))
	copy(out, intentTypes)
	return out
}

func (t IntentType) String() string {
	return string(t)
}

// Valid reports whether t is one of the enumerated intent types.
func (t IntentType) Valid() bool {
	for _, it := range intentTypes {
		if it == t {
			return true
		}
	}
	return false
}

// IsSearch reports whether userInput carries search terms for this type.
func (t IntentType) IsSearch() bool {
	switch t {
	case IntentGoogleSearch, IntentYouTubeSearch, IntentYouTubePlay:
		return true
	}
	return false
}

// IntentRecord is the unit exchanged between the classifier and the dialogue controller.
type IntentRecord struct {
	Type      IntentType `json:"type"`
	UserInput string     `json:"userInput"`
	Response  string     `json:"response"`
}

var (
	errMissingType     = errors.New("type is missing")
	errMissingInput    = errors.New("userInput is empty")
	errMissingResponse = errors.New("response is empty")
)

// Validate requires a known type, a non-empty userInput and a non-empty response.
func (r IntentRecord) Validate() error {
	switch {
	case r.Type == "":
		return errMissingType
	case !r.Type.Valid():
		return fmt.Errorf("unknown type %q", r.Type)
	case r.UserInput == "":
		return errMissingInput
	case strings.TrimSpace(r.Response) == "":
		return errMissingResponse
	}
	return nil
}

// Source tells which path produced an IntentRecord.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Classification is an IntentRecord plus how it was obtained.
type Classification struct {
	Record  IntentRecord  `json:"record"`
	Source  Source        `json:"source"`
	Reason  errx.Kind     `json:"reason,omitempty"`
	Latency time.Duration `json:"latency"`
}
