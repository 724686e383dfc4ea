package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTargetAmount(t *testing.T) {
	tests := []struct {
		input  string
		user   int64
		amount int64
		ok     bool
	}{
		{"123 10", 123, 10, true},
		{"  123   10 ", 123, 10, true},
		{"123 0", 0, 0, false},
		{"123 -4", 0, 0, false},
		{"abc 10", 0, 0, false},
		{"123", 0, 0, false},
		{"123 10 5", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			user, amount, ok := ParseTargetAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.user, user)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestParseBulkGift(t *testing.T) {
	t.Run("spaces commas and newlines", func(t *testing.T) {
		amount, ids, ok := ParseBulkGift("5 100,200\n300")
		assert.True(t, ok)
		assert.Equal(t, int64(5), amount)
		assert.Equal(t, []int64{100, 200, 300}, ids)
	})

	t.Run("duplicates and garbage skipped", func(t *testing.T) {
		_, ids, ok := ParseBulkGift("5 100 x 100 200")
		assert.True(t, ok)
		assert.Equal(t, []int64{100, 200}, ids)
	})

	t.Run("no valid ids", func(t *testing.T) {
		_, _, ok := ParseBulkGift("5 x y")
		assert.False(t, ok)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, _, ok := ParseBulkGift("-5 100")
		assert.False(t, ok)
	})

	t.Run("amount only", func(t *testing.T) {
		_, _, ok := ParseBulkGift("5")
		assert.False(t, ok)
	})
}
