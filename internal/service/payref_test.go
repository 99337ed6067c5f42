package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaymentRef_Format(t *testing.T) {
	ref, err := newPaymentRef()
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, paymentRefPrefix))
	assert.Len(t, ref, len(paymentRefPrefix)+paymentRefLength)

	for _, r := range ref[len(paymentRefPrefix):] {
		assert.Contains(t, paymentRefCharset, string(r))
	}
}

func TestNewPaymentRef_NoAmbiguousSymbols(t *testing.T) {
	for _, forbidden := range []string{"0", "O", "1", "I"} {
		assert.NotContains(t, paymentRefCharset, forbidden)
	}
}

func TestNewPaymentRef_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ref, err := newPaymentRef()
		assert.NoError(t, err)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}
