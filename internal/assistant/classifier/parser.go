package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

// basic safety limits for untrusted model output
const (
	maxContentLen = 64 * 1024
	maxErrSnippet = 200
)

var (
	fenceOpen  = regexp.MustCompile("(?i)```json\\n?")
	fenceClose = regexp.MustCompile("\\n?```")
	blankLines = regexp.MustCompile(`(?m)^\s*[\r\n]`)
)

// Sanitize strips code fences and blank lines the model sometimes wraps JSON in.
func Sanitize(content string) string {
	content = fenceOpen.ReplaceAllString(content, "")
	content = fenceClose.ReplaceAllString(content, "")
	content = blankLines.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// ParseIntentRecord turns raw model text into a validated IntentRecord.
// Every failure, including a panic while decoding, is reported as a malformed error.
func ParseIntentRecord(content string) (rec model.IntentRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "intent_parser").Msgf("panic recovered: %v", r)
			rec = model.IntentRecord{}
			err = errx.Malformed(fmt.Errorf("intent parser panic"))
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "intent_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	cleaned := Sanitize(content)
	if cleaned == "" {
		return rec, errx.Malformed(errors.New("empty content"))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return rec, errx.Malformed(fmt.Errorf("decode %q: %w", safeSnippet(cleaned), err))
	}

	typ, err := stringField(fields, "type")
	if err != nil {
		return rec, errx.Malformed(err)
	}
	input, err := stringField(fields, "userInput")
	if err != nil {
		return rec, errx.Malformed(err)
	}
	resp, err := stringField(fields, "response")
	if err != nil {
		return rec, errx.Malformed(err)
	}

	rec = model.IntentRecord{
		Type:      model.IntentType(strings.TrimSpace(typ)),
		UserInput: strings.TrimSpace(input),
		Response:  strings.TrimSpace(resp),
	}
	if err := rec.Validate(); err != nil {
		return model.IntentRecord{}, errx.Malformed(err)
	}
	return rec, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%s: missing", name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: not a string", name)
	}
	return s, nil
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
