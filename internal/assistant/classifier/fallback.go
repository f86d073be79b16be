package classifier

import (
	"regexp"
	"strings"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
)

const notAvailable = "not available right now"

const (
	greetingReply  = "Hello! How can I help you today?"
	didNotGetReply = "I'm having trouble understanding. Could you please try again?"
)

type fallbackRule struct {
	keywords []string
	typ      model.IntentType
	reply    func(sc model.SessionContext) string
}

func fixed(s string) func(model.SessionContext) string {
	return func(model.SessionContext) string { return s }
}

func orUnavailable(v string) string {
	if strings.TrimSpace(v) == "" {
		return notAvailable
	}
	return v
}

// Order matters: clock words win over app names ("what time is it, Assistant").
var fallbackRules = []fallbackRule{
	{keywords: []string{"time"}, typ: model.IntentGetTime, reply: func(sc model.SessionContext) string {
		return "Current time is " + orUnavailable(sc.Time)
	}},
	{keywords: []string{"date"}, typ: model.IntentGetDate, reply: func(sc model.SessionContext) string {
		return "Today is " + orUnavailable(sc.Date)
	}},
	{keywords: []string{"day"}, typ: model.IntentGetDay, reply: func(sc model.SessionContext) string {
		return "Today is " + orUnavailable(sc.Day)
	}},
	{keywords: []string{"month"}, typ: model.IntentGetMonth, reply: func(sc model.SessionContext) string {
		return "Current month is " + orUnavailable(sc.Month)
	}},
	{keywords: []string{"youtube"}, typ: model.IntentYouTubeSearch, reply: fixed("Opening YouTube for you")},
	{keywords: []string{"google"}, typ: model.IntentGoogleSearch, reply: fixed("Searching on Google")},
	{keywords: []string{"calculator"}, typ: model.IntentCalculatorOpen, reply: fixed("Opening calculator")},
	{keywords: []string{"instagram"}, typ: model.IntentInstagramOpen, reply: fixed("Opening Instagram")},
	{keywords: []string{"facebook"}, typ: model.IntentFacebookOpen, reply: fixed("Opening Facebook")},
	{keywords: []string{"weather"}, typ: model.IntentWeatherShow, reply: fixed("Showing weather information")},
	{keywords: []string{"hello", "hi", "hey"}, typ: model.IntentGeneral, reply: fixed(greetingReply)},
}

// Fallback classifies a transcript by keyword. It is deterministic for a given
// transcript and session context and never fails.
func Fallback(transcript string, sc model.SessionContext) model.IntentRecord {
	lower := strings.ToLower(transcript)
	for _, rule := range fallbackRules {
		if !containsAny(lower, rule.keywords) {
			continue
		}
		input := transcript
		// search terms go out without the assistant name
		if rule.typ.IsSearch() {
			input = stripName(lower, sc.AssistantName)
			if input == "" {
				input = strings.TrimSpace(lower)
			}
		}
		return model.IntentRecord{Type: rule.typ, UserInput: input, Response: rule.reply(sc)}
	}
	return model.IntentRecord{Type: model.IntentGeneral, UserInput: transcript, Response: didNotGetReply}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// stripName removes every case-insensitive occurrence of name and collapses whitespace.
func stripName(lower, name string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
		lower = re.ReplaceAllString(lower, " ")
	}
	return strings.Join(strings.Fields(lower), " ")
}
