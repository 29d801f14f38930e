package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// inviteAlphabet excludes easily confused characters (0/O, 1/I/L).
const inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewPaymentRef returns the opaque reference attached to a booking and
// passed to the payment gateway as m_payment_id.
func NewPaymentRef() string {
	return uuid.NewString()
}

// NewInviteCode returns a 6-character organization invite code.  Codes
// are checked for uniqueness at insert time; a collision retries with a
// fresh code.  The byte-modulo mapping slightly favours the first
// 256 mod 31 alphabet characters, which is fine for codes whose only
// job is to be unique and typeable.
func NewInviteCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(inviteAlphabet[int(b)%len(inviteAlphabet)])
	}
	return sb.String(), nil
}

// NewMandateRef returns a debit-order mandate reference of the form
// DO<unix-millis><6 random chars>.
func NewMandateRef() (string, error) {
	return timedRef("DO", 6)
}

// NewTransactionRef returns a debit-order collection reference of the
// form TX<unix-millis><8 random chars>.
func NewTransactionRef() (string, error) {
	return timedRef("TX", 8)
}

func timedRef(prefix string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(inviteAlphabet[int(b)%len(inviteAlphabet)])
	}
	return fmt.Sprintf("%s%d%s", prefix, time.Now().UnixMilli(), sb.String()), nil
}
