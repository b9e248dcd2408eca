package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectState(t *testing.T) {
	tests := []struct {
		address string
		want    string
		ok      bool
	}{
		{"500 S State St, Ann Arbor, MI 48109", "MI", true},
		{"Ann Arbor, MI", "MI", true},
		{"1600 Pennsylvania Ave NW, Washington, D.C. 20500", "DC", true},
		{"1 Main St, Charleston, West Virginia 25301", "WV", true},
		{"100 Grand Blvd, Kansas City, MO 64106", "MO", true},
		{"350 Fifth Avenue, New York, NY 10118", "NY", true},
		{"1 Harbor Rd, Portland, or 97201", "OR", true},
		{"221B Baker Street, London", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			got, ok := DetectState(tt.address)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateTable(t *testing.T) {
	assert.Len(t, states, 51)
	seen := map[string]bool{}
	for _, s := range states {
		assert.Len(t, s.code, 2)
		assert.False(t, seen[s.code], s.code)
		seen[s.code] = true
	}
}
