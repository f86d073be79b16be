package prompts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
)

func TestClassifierTemplateFormat(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	sc := model.NewSessionContext(model.Profile{AssistantName: "Nova", OwnerName: "Sam"}, now)

	msgs, err := NewClassifierTemplate().Format(context.Background(), ClassifierVariables(`play "lofi"   beats`, sc))
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(msgs) != 1 || msgs[0] == nil {
		t.Fatalf("got %d messages", len(msgs))
	}
	out := msgs[0].Content

	for _, want := range []string{
		"You are a virtual assistant named Nova created by Sam.",
		"- Time: 09:30 AM",
		"- Date: Tuesday, March 5, 2024",
		`"userInput": "original user input"`,
		`User input: "play 'lofi' beats"`,
		"If asked who created you, mention Sam",
		"(respond with actual time: 09:30 AM)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "Respond with valid JSON only:") {
		t.Errorf("prompt must end with the JSON instruction")
	}
	for _, it := range model.IntentTypes() {
		if !strings.Contains(out, `- "`+string(it)+`": `) {
			t.Errorf("prompt does not list type %s", it)
		}
	}
}

func TestEveryTypeIsDescribed(t *testing.T) {
	t.Parallel()

	descs := typeDescriptions(model.SessionContext{})
	for _, it := range model.IntentTypes() {
		if strings.TrimSpace(descs[it]) == "" {
			t.Errorf("no description for %s", it)
		}
	}
}
