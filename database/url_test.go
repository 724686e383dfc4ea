package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		dbName   string
		expected string
	}{
		{
			name:     "no database name returns base unchanged",
			baseURL:  "postgres://u:p@localhost:5432",
			dbName:   "",
			expected: "postgres://u:p@localhost:5432",
		},
		{
			name:     "appends name and sslmode",
			baseURL:  "postgres://u:p@localhost:5432/",
			dbName:   "credits",
			expected: "postgres://u:p@localhost:5432/credits?sslmode=disable",
		},
		{
			name:     "keeps existing query parameters",
			baseURL:  "postgres://u:p@localhost:5432?connect_timeout=5",
			dbName:   "credits",
			expected: "postgres://u:p@localhost:5432/credits?connect_timeout=5&sslmode=disable",
		},
		{
			name:     "respects explicit sslmode",
			baseURL:  "postgres://u:p@db?sslmode=require",
			dbName:   "credits",
			expected: "postgres://u:p@db/credits?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConstructDatabaseURL(tt.baseURL, tt.dbName))
		})
	}
}
