package model

import "time"

// Profile carries the names the assistant introduces itself with.
type Profile struct {
	AssistantName string `envconfig:"ASSISTANT_NAME" default:"Assistant"`
	OwnerName     string `envconfig:"OWNER_NAME" default:"my owner"`
}

// SessionContext is built per classification and never cached across turns.
type SessionContext struct {
	AssistantName string
	OwnerName     string
	Time          string // 03:04 PM
	Date          string // Monday, January 2, 2006
	Day           string // Monday
	Month         string // January
}

const (
	timeLayout = "03:04 PM"
	dateLayout = "Monday, January 2, 2006"
)

// NewSessionContext formats now the way an en-US locale would read it aloud.
func NewSessionContext(p Profile, now time.Time) SessionContext {
	sc := SessionContext{
		AssistantName: p.AssistantName,
		OwnerName:     p.OwnerName,
	}
	if now.IsZero() {
		return sc
	}
	sc.Time = now.Format(timeLayout)
	sc.Date = now.Format(dateLayout)
	sc.Day = now.Weekday().String()
	sc.Month = now.Month().String()
	return sc
}
