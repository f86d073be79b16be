package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
)

type recordingOpener struct {
	urls []string
	err  error
}

func (r *recordingOpener) Open(_ context.Context, u string) error {
	r.urls = append(r.urls, u)
	return r.err
}

func TestURLFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		typ   model.IntentType
		input string
		want  string
	}{
		{model.IntentGoogleSearch, "golang channels", "https://www.google.com/search?q=golang+channels"},
		{model.IntentYouTubeSearch, "cats & dogs", "https://www.youtube.com/results?search_query=cats+%26+dogs"},
		{model.IntentYouTubePlay, "lofi", "https://www.youtube.com/results?search_query=lofi"},
		{model.IntentCalculatorOpen, "open calculator", "https://www.google.com/search?q=calculator"},
		{model.IntentInstagramOpen, "x", "https://www.instagram.com/"},
		{model.IntentFacebookOpen, "x", "https://www.facebook.com/"},
		{model.IntentWeatherShow, "x", "https://www.google.com/search?q=weather"},
	}
	for _, tc := range cases {
		got, ok := URLFor(tc.typ, tc.input)
		if !ok || got != tc.want {
			t.Errorf("URLFor(%s, %q) = %q, %v; want %q", tc.typ, tc.input, got, ok, tc.want)
		}
	}

	for _, typ := range []model.IntentType{model.IntentGeneral, model.IntentGetTime, model.IntentGetDate, model.IntentGetDay, model.IntentGetMonth} {
		if _, ok := URLFor(typ, "x"); ok {
			t.Errorf("%s must not open anything", typ)
		}
	}
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	op := &recordingOpener{}
	d := New(op)

	if err := d.Dispatch(context.Background(), model.IntentGetTime, "what time is it"); err != nil {
		t.Fatalf("no-op dispatch failed: %v", err)
	}
	if err := d.Dispatch(context.Background(), model.IntentInstagramOpen, "open instagram"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(op.urls) != 1 || op.urls[0] != "https://www.instagram.com/" {
		t.Fatalf("opened %v", op.urls)
	}

	op.err = errors.New("socket closed")
	if err := d.Dispatch(context.Background(), model.IntentFacebookOpen, "fb"); !errors.Is(err, op.err) {
		t.Fatalf("expected wrapped opener error, got %v", err)
	}
}
