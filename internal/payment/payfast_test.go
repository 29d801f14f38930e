package payment

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureFieldOrderAndEncoding(t *testing.T) {
	p := &PayFast{MerchantID: "10000100", MerchantKey: "46f0cd694581a"}

	fields := map[string]string{
		"amount":       "150.00",
		"merchant_id":  "10000100",
		"merchant_key": "46f0cd694581a",
		"item_name":    "Junior Tennis (U12)",
		"m_payment_id": "ref-123",
	}
	// expected string follows the documented field order, not the map
	// order, with spaces as + and parentheses literal
	want := "merchant_id=10000100&merchant_key=46f0cd694581a&m_payment_id=ref-123&amount=150.00&item_name=Junior+Tennis+(U12)"
	sum := md5.Sum([]byte(want))
	assert.Equal(t, hex.EncodeToString(sum[:]), p.Signature(fields))
}

func TestSignatureSkipsEmptyAndUnknownFields(t *testing.T) {
	p := &PayFast{MerchantID: "m", MerchantKey: "k"}
	base := p.Signature(map[string]string{"merchant_id": "m", "amount": "10.00"})
	withNoise := p.Signature(map[string]string{
		"merchant_id": "m",
		"amount":      "10.00",
		"item_name":   "   ",
		"signature":   "deadbeef",
		"unknown":     "x",
	})
	assert.Equal(t, base, withNoise)
}

func TestSignaturePassphraseAppended(t *testing.T) {
	without := (&PayFast{}).Signature(map[string]string{"amount": "5.00"})
	with := (&PayFast{Passphrase: "secret phrase"}).Signature(map[string]string{"amount": "5.00"})
	assert.NotEqual(t, without, with)

	sum := md5.Sum([]byte("amount=5.00&passphrase=secret+phrase"))
	assert.Equal(t, hex.EncodeToString(sum[:]), with)
}

func TestPaymentURLCarriesSignature(t *testing.T) {
	p := &PayFast{MerchantID: "10000100", MerchantKey: "46f0cd694581a", Sandbox: true}
	raw := p.PaymentURL(PaymentRequest{
		NotifyURL: "https://example.com/itn",
		Email:     "jane@example.com",
		PaymentID: "ref-9",
		Amount:    "80.00",
		ItemName:  "Swim Squad",
	})
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.payfast.co.za", u.Host)
	q := u.Query()
	assert.Equal(t, "ref-9", q.Get("m_payment_id"))
	assert.Len(t, q.Get("signature"), 32)
}

func TestVerifyNotification(t *testing.T) {
	p := &PayFast{MerchantID: "10000100", MerchantKey: "46f0cd694581a"}

	form := url.Values{}
	form.Set("m_payment_id", "ref-42")
	form.Set("pf_payment_id", "1089250")
	form.Set("payment_status", "COMPLETE")
	form.Set("amount_gross", "150.00")
	form.Set("merchant_id", "10000100")

	n := ParseNotification(form)
	n.Signature = p.Signature(n.Raw)
	n.Raw["signature"] = n.Signature
	assert.True(t, p.VerifyNotification(n))

	tampered := n
	tampered.Raw = map[string]string{}
	for k, v := range n.Raw {
		tampered.Raw[k] = v
	}
	tampered.Raw["m_payment_id"] = "ref-43"
	assert.False(t, p.VerifyNotification(tampered))

	wrongMerchant := n
	wrongMerchant.MerchantID = "999"
	assert.False(t, p.VerifyNotification(wrongMerchant))
}
