package speech

import "strings"

// Voice is one synthesis voice offered by the host engine.
type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// SelectVoice prefers a high quality voice for lang, then any voice for lang,
// then any voice sharing the language prefix, then the first voice.
func SelectVoice(voices []Voice, lang string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	lang = strings.ToLower(lang)
	prefix := lang
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		prefix = lang[:i]
	}

	matches := func(v Voice) bool { return strings.EqualFold(normalizeLang(v.Lang), lang) }

	for _, v := range voices {
		name := strings.ToLower(v.Name)
		if matches(v) && (strings.Contains(name, "google") || strings.Contains(name, "enhanced")) {
			return v, true
		}
	}
	for _, v := range voices {
		if matches(v) {
			return v, true
		}
	}
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), prefix) {
			return v, true
		}
	}
	return voices[0], true
}

func normalizeLang(l string) string {
	return strings.ReplaceAll(l, "_", "-")
}
