package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferral(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int64
		ok      bool
	}{
		{"valid referrer", "ref_42", 42, true},
		{"surrounding spaces", "  ref_42 ", 42, true},
		{"self referral", "ref_7", 0, false},
		{"missing prefix", "42", 0, false},
		{"not a number", "ref_abc", 0, false},
		{"negative id", "ref_-5", 0, false},
		{"zero id", "ref_0", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReferral(tt.payload, 7)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestReferralLink(t *testing.T) {
	f := &Feature{botUsername: "credit_bot"}
	assert.Equal(t, "https://t.me/credit_bot?start=ref_99", f.ReferralLink(99))
}
