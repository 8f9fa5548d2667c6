// Package payment verifies callbacks from the payment gateway. The gateway itself (checkout URL
// construction, capture) is external; this package only turns a signed callback into a
// success signal plus the order reference it paid for.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

const SignatureHeader = "X-Webhook-Signature"

var (
	ErrNotConfigured    = errors.New("payment webhook secret not configured")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// Callback is the verified result of a gateway notification.
type Callback struct {
	Reference     string `json:"reference"`
	BoostID       string `json:"boost_id"`
	Status        string `json:"status"`
	AssignPartner *uint  `json:"assign_partner,omitempty"`
}

// Succeeded reports whether the gateway captured the payment.
func (c *Callback) Succeeded() bool {
	switch strings.ToUpper(c.Status) {
	case "COMPLETED", "SUCCEEDED", "PAID":
		return true
	}
	return false
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the hex HMAC-SHA256 signature of body and decodes it.
func (v *Verifier) Verify(body []byte, signature string) (*Callback, error) {
	if len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}
	if !hmac.Equal([]byte(signature), []byte(Sign(v.secret, body))) {
		return nil, ErrInvalidSignature
	}
	var cb Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, ErrInvalidPayload
	}
	if cb.BoostID == "" {
		return nil, ErrInvalidPayload
	}
	return &cb, nil
}

func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
