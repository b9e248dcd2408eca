package cache

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestFingerprintNormalizes(t *testing.T) {
	a := Fingerprint("500 S State St, Ann Arbor, MI 48109")
	b := Fingerprint("  500 s state st,\tANN ARBOR,   mi 48109\n")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Fingerprint("501 S State St, Ann Arbor, MI 48109"))
}

func TestFingerprintProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("case and spacing do not change the fingerprint", prop.ForAll(
		func(words []string) bool {
			plain := strings.Join(words, " ")
			noisy := "  " + strings.ToUpper(strings.Join(words, " \t ")) + "\n"
			return Fingerprint(plain) == Fingerprint(noisy)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
