package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
)

//go:embed template/classifier_prompt.txt
var classifierPrompt string

// TypeDoc describes one allowed intent type for the prompt.
type TypeDoc struct {
	Name        model.IntentType
	Description string
}

func typeDescriptions(sc model.SessionContext) map[model.IntentType]string {
	return map[model.IntentType]string{
		model.IntentGeneral:        "factual/informational questions, greetings, or general conversation",
		model.IntentGoogleSearch:   "user wants to search something on Google",
		model.IntentYouTubeSearch:  "user wants to search something on YouTube",
		model.IntentYouTubePlay:    "user wants to play a specific video/song on YouTube",
		model.IntentCalculatorOpen: "user wants to open calculator",
		model.IntentInstagramOpen:  "user wants to open Instagram",
		model.IntentFacebookOpen:   "user wants to open Facebook",
		model.IntentWeatherShow:    "user wants to see weather information",
		model.IntentGetTime:        fmt.Sprintf("user asks for current time (respond with actual time: %s)", sc.Time),
		model.IntentGetDate:        fmt.Sprintf("user asks for today's date (respond with actual date: %s)", sc.Date),
		model.IntentGetDay:         fmt.Sprintf("user asks what day it is (respond with: %s)", sc.Day),
		model.IntentGetMonth:       fmt.Sprintf("user asks for current month (respond with: %s)", sc.Month),
	}
}

// NewClassifierTemplate returns the chat template used as the first node of the classifier chain.
func NewClassifierTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(classifierPrompt),
	)
}

// ClassifierVariables builds the template variables for one transcript.
// The transcript is collapsed onto one line so it cannot break out of its quotes.
func ClassifierVariables(transcript string, sc model.SessionContext) map[string]any {
	descs := typeDescriptions(sc)
	types := make([]TypeDoc, 0, len(descs))
	for _, it := range model.IntentTypes() {
		types = append(types, TypeDoc{Name: it, Description: descs[it]})
	}
	return map[string]any{
		"AssistantName": sc.AssistantName,
		"OwnerName":     sc.OwnerName,
		"Time":          sc.Time,
		"Date":          sc.Date,
		"Day":           sc.Day,
		"Month":         sc.Month,
		"Types":         types,
		"Transcript":    strings.Join(strings.Fields(strings.ReplaceAll(transcript, `"`, `'`)), " "),
	}
}
