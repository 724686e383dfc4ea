package lookup

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeta = Meta{Developer: "@dev", PoweredBy: "TEST", Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mapping gains meta", `{"a":1}`, `{"a":1,"meta":{"developer":"@dev","powered_by":"TEST","timestamp":"2024-01-02T03:04:05Z"}}`},
		{"sequence under results", `[1,2]`, `{"results":[1,2],"meta":{"developer":"@dev","powered_by":"TEST","timestamp":"2024-01-02T03:04:05Z"}}`},
		{"scalar under data", `42`, `{"data":"42","meta":{"developer":"@dev","powered_by":"TEST","timestamp":"2024-01-02T03:04:05Z"}}`},
		{"upstream meta replaced", `{"meta":"theirs"}`, `{"meta":{"developer":"@dev","powered_by":"TEST","timestamp":"2024-01-02T03:04:05Z"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Wrap(mustParse(t, tt.input), testMeta).MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestRender_Indented(t *testing.T) {
	text, truncated := Render(NewMapping().Set("a", String("<b>")), 100)
	assert.False(t, truncated)
	assert.Equal(t, "{\n    \"a\": \"<b>\"\n}", text)
}

func TestRender_Truncates(t *testing.T) {
	node := NewMapping().Set("data", String(strings.Repeat("é", 100)))
	full, _ := Render(node, 0)

	text, truncated := Render(node, 20)
	assert.True(t, truncated)

	prefix := string([]rune(full)[:20])
	assert.True(t, strings.HasPrefix(text, prefix))
	assert.True(t, strings.HasSuffix(text, "characters more]"))
	assert.Contains(t, text, "\n\n... [Data truncated, ")
	assert.Contains(t, text, "[Data truncated, "+strconv.Itoa(len([]rune(full))-20)+" characters more]")
}
