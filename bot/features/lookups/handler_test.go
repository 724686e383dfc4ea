package lookups

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"creditbot/lookup"
)

func newTestFeature() *Feature {
	f := New(nil, nil, nil, nil, nil, nil)
	f.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	return f
}

func TestFormatResult(t *testing.T) {
	f := newTestFeature()

	text := f.FormatResult(&lookup.Result{Category: "num", Input: "<1>", Text: `{"a": "b&c"}`})

	assert.True(t, strings.HasPrefix(text, "🔍 <b>NUM Lookup Results</b>"))
	assert.Contains(t, text, "<code>&lt;1&gt;</code>")
	assert.Contains(t, text, "01-06-2024 09:30")
	assert.Contains(t, text, `<pre>{"a": "b&amp;c"}</pre>`)
	assert.Contains(t, text, "@Nullprotocol_X")
	assert.NotContains(t, text, "truncated")
}

func TestFormatResult_Truncated(t *testing.T) {
	f := newTestFeature()

	text := f.FormatResult(&lookup.Result{Category: "num", Input: "1", Text: "x", Truncated: true})

	assert.Contains(t, text, "Response truncated for display")
}

func TestFormatLogEntry(t *testing.T) {
	f := newTestFeature()
	from := &tgbotapi.User{ID: 77, UserName: "bob"}

	t.Run("short result", func(t *testing.T) {
		text := f.FormatLogEntry(from, &lookup.Result{Category: "email", Input: "a@b.c", Text: "ok", Payload: "okay"})

		assert.Contains(t, text, "Lookup Log - EMAIL")
		assert.Contains(t, text, "👤 User: 77 (@bob)")
		assert.Contains(t, text, "📊 Size: 4 characters")
		assert.NotContains(t, text, "truncated for log channel")
	})

	t.Run("long result is cut", func(t *testing.T) {
		long := strings.Repeat("é", logChannelPreview+10)
		text := f.FormatLogEntry(&tgbotapi.User{ID: 77}, &lookup.Result{Category: "email", Input: "x", Text: long, Payload: long})

		assert.Contains(t, text, "👤 User: 77 (N/A)")
		assert.Contains(t, text, "truncated for log channel")
		assert.Equal(t, logChannelPreview, strings.Count(text, "é"))
	})
}
