// Package payment implements the PayFast gateway integration: payment
// URL construction, the ordered-field MD5 signature scheme and ITN
// (instant transaction notification) verification.
package payment

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// fieldOrder is the documented PayFast payment-form field sequence.
// The signature string must list fields in this exact order, skipping
// empty values; alphabetical ordering produces a different signature
// and is only used by their REST API.
var fieldOrder = []string{
	"merchant_id",
	"merchant_key",
	"return_url",
	"cancel_url",
	"notify_url",
	"name_first",
	"name_last",
	"email_address",
	"cell_number",
	"m_payment_id",
	"amount",
	"item_name",
	"item_description",
	"custom_int1",
	"custom_int2",
	"custom_int3",
	"custom_int4",
	"custom_int5",
	"custom_str1",
	"custom_str2",
	"custom_str3",
	"custom_str4",
	"custom_str5",
	"email_confirmation",
	"confirmation_address",
	"payment_method",
	"subscription_type",
	"billing_date",
	"recurring_amount",
	"frequency",
	"cycles",
}

// PayFast holds merchant credentials.  Passphrase may be empty for
// accounts without one configured; when set it is appended to every
// signature string.
type PayFast struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	Sandbox     bool
}

// processURL is the endpoint the participant is redirected to.
func (p *PayFast) processURL() string {
	if p.Sandbox {
		return "https://sandbox.payfast.co.za/eng/process"
	}
	return "https://www.payfast.co.za/eng/process"
}

// encode applies PayFast's flavor of URL encoding: spaces become +,
// parentheses stay literal, everything else follows RFC 3986 uppercase
// hex.
func encode(v string) string {
	e := url.QueryEscape(v)
	e = strings.ReplaceAll(e, "%28", "(")
	e = strings.ReplaceAll(e, "%29", ")")
	return e
}

// Signature computes the MD5 form signature over the given fields.
// Fields outside the documented order and empty values are skipped, and
// any incoming "signature" key is ignored.
func (p *PayFast) Signature(fields map[string]string) string {
	var parts []string
	for _, name := range fieldOrder {
		v := strings.TrimSpace(fields[name])
		if v == "" {
			continue
		}
		parts = append(parts, name+"="+encode(v))
	}
	s := strings.Join(parts, "&")
	if pass := strings.TrimSpace(p.Passphrase); pass != "" {
		s += "&passphrase=" + encode(pass)
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// PaymentRequest carries the per-booking values placed in the payment
// form.  Amount is a decimal string in rands, e.g. "150.00".
type PaymentRequest struct {
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
	NameFirst   string
	NameLast    string
	Email       string
	PaymentID   string // m_payment_id, the booking's payment_ref
	Amount      string
	ItemName    string
	Description string
}

// PaymentURL builds the signed redirect URL for a payment request.
func (p *PayFast) PaymentURL(req PaymentRequest) string {
	fields := map[string]string{
		"merchant_id":      p.MerchantID,
		"merchant_key":     p.MerchantKey,
		"return_url":       req.ReturnURL,
		"cancel_url":       req.CancelURL,
		"notify_url":       req.NotifyURL,
		"name_first":       req.NameFirst,
		"name_last":        req.NameLast,
		"email_address":    req.Email,
		"m_payment_id":     req.PaymentID,
		"amount":           req.Amount,
		"item_name":        req.ItemName,
		"item_description": req.Description,
	}
	sig := p.Signature(fields)

	q := url.Values{}
	for _, name := range fieldOrder {
		if v := strings.TrimSpace(fields[name]); v != "" {
			q.Set(name, v)
		}
	}
	q.Set("signature", sig)
	return p.processURL() + "?" + q.Encode()
}

// Notification is a parsed ITN callback.
type Notification struct {
	PaymentID     string // m_payment_id echoed back
	PFPaymentID   string // gateway-side transaction id
	PaymentStatus string // COMPLETE, FAILED, ...
	AmountGross   string
	MerchantID    string
	Signature     string
	Raw           map[string]string
}

// StatusComplete is the ITN payment_status for a successful payment.
const StatusComplete = "COMPLETE"

// ParseNotification decodes an ITN form body into a Notification.
func ParseNotification(form url.Values) Notification {
	raw := make(map[string]string, len(form))
	for k := range form {
		raw[k] = form.Get(k)
	}
	return Notification{
		PaymentID:     raw["m_payment_id"],
		PFPaymentID:   raw["pf_payment_id"],
		PaymentStatus: raw["payment_status"],
		AmountGross:   raw["amount_gross"],
		MerchantID:    raw["merchant_id"],
		Signature:     raw["signature"],
		Raw:           raw,
	}
}

// VerifyNotification checks the ITN signature and that the notification
// targets this merchant account.
func (p *PayFast) VerifyNotification(n Notification) bool {
	if n.MerchantID != p.MerchantID {
		return false
	}
	return p.Signature(n.Raw) == n.Signature
}
