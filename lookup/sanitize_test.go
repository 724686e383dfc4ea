package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Node {
	t.Helper()
	node, err := Parse([]byte(s))
	require.NoError(t, err)
	return node
}

func TestSanitize_DefaultRules(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "branding key dropped case-insensitively",
			input:    `{"name":"x","Branding":{"by":"someone"},"BRANDING":"y"}`,
			expected: `{"name":"x"}`,
		},
		{
			name:     "blocked handles dropped",
			input:    `{"owner":"Join T.ME/AnshAPI now","dev":"@PatelKrish_99","phone":"12345"}`,
			expected: `{"phone":"12345"}`,
		},
		{
			name:     "foreign credit line dropped, own credit kept",
			input:    `{"credit":"Credits: someone else","note":"credit to NullProtocol","plain":"ok"}`,
			expected: `{"note":"credit to NullProtocol","plain":"ok"}`,
		},
		{
			name:     "nested mappings inside sequences cleaned",
			input:    `{"results":[{"a":"keep","b":"by @losernagiofficial"},"anshapi raw string",3]}`,
			expected: `{"results":[{"a":"keep"},"anshapi raw string",3]}`,
		},
		{
			name:     "top-level sequence walked",
			input:    `[{"branding":1,"v":2}]`,
			expected: `[{"v":2}]`,
		},
		{
			name:     "non-string scalars untouched",
			input:    `{"n":1,"b":false,"z":null}`,
			expected: `{"n":1,"b":false,"z":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Sanitize(mustParse(t, tt.input), DefaultRules())
			data, err := out.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestSanitize_DoesNotModifyInput(t *testing.T) {
	input := mustParse(t, `{"branding":"x","inner":{"dev":"anshapi"}}`)
	before, _ := input.MarshalJSON()

	Sanitize(input, DefaultRules())

	after, _ := input.MarshalJSON()
	assert.Equal(t, string(before), string(after))
}

func TestSanitize_CustomRules(t *testing.T) {
	rules := Rules{DropKeys: []string{"Secret"}, BlockedSubstrings: []string{"spam"}}
	out := Sanitize(mustParse(t, `{"secret":1,"a":"SPAM here","credit":"credit line"}`), rules)

	data, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"credit":"credit line"}`, string(data))
}
