package utils

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentRef(t *testing.T) {
	ref := NewPaymentRef()
	_, err := uuid.Parse(ref)
	require.NoError(t, err)
	assert.NotEqual(t, ref, NewPaymentRef())
}

func TestNewInviteCode(t *testing.T) {
	code, err := NewInviteCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.Contains(t, inviteAlphabet, string(r))
	}
}

func TestMandateAndTransactionRefs(t *testing.T) {
	mandate, err := NewMandateRef()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^DO\d{13}[A-Z2-9]{6}$`), mandate)

	tx, err := NewTransactionRef()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^TX\d{13}[A-Z2-9]{8}$`), tx)
}
