package verify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// StaticHMACScheme verifies a shared-secret HMAC-SHA256 signature
// carried in a single header. The secret comes from the resolved
// credential, never from the scheme itself.
type StaticHMACScheme struct {
	Header   string
	Prefix   string
	Encoding string // hex | base64
}

func (s StaticHMACScheme) Verify(_ context.Context, req core.InboundRequest, cred core.Credential) error {
	header := headerValue(req.Headers, s.Header)
	if header == "" {
		return fmt.Errorf("%w: %s", ErrMissingSignature, strings.TrimSpace(s.Header))
	}
	secret := strings.TrimSpace(cred.Secret)
	if secret == "" {
		return ErrMissingSecret
	}
	signature := strings.TrimSpace(strings.TrimPrefix(header, strings.TrimSpace(s.Prefix)))
	if signature == "" {
		return fmt.Errorf("%w: %s", ErrMissingSignature, strings.TrimSpace(s.Header))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(req.Body)
	expected := mac.Sum(nil)

	var decoded []byte
	var err error
	switch strings.ToLower(strings.TrimSpace(s.Encoding)) {
	case "base64":
		decoded, err = base64.StdEncoding.DecodeString(signature)
	default:
		decoded, err = hex.DecodeString(signature)
	}
	if err != nil {
		return fmt.Errorf("%w: decode signature: %v", ErrInvalidSignature, err)
	}
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

var _ core.SignatureScheme = StaticHMACScheme{}
