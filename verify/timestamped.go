package verify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RustMunkey/quickdash-sub005/core"
)

const defaultReplayWindow = 5 * time.Minute

// TimestampedScheme verifies the Svix-style signing convention: the
// signed content is "<id>.<timestamp>.<body>", the secret is base64
// after an optional prefix is stripped, and the signature header holds
// space-separated "version,signature" pairs. Verification succeeds when
// any pair with a recognized version matches.
type TimestampedScheme struct {
	IDHeader        string
	TimestampHeader string
	SignatureHeader string
	SecretPrefix    string
	VersionTag      string
	ReplayWindow    time.Duration
	Now             func() time.Time
}

func (s TimestampedScheme) Verify(_ context.Context, req core.InboundRequest, cred core.Credential) error {
	id := headerValue(req.Headers, s.IDHeader)
	if id == "" {
		return fmt.Errorf("%w: %s", ErrMissingSignature, strings.TrimSpace(s.IDHeader))
	}
	rawTimestamp := headerValue(req.Headers, s.TimestampHeader)
	if rawTimestamp == "" {
		return fmt.Errorf("%w: %s", ErrMissingSignature, strings.TrimSpace(s.TimestampHeader))
	}
	signatureHeader := headerValue(req.Headers, s.SignatureHeader)
	if signatureHeader == "" {
		return fmt.Errorf("%w: %s", ErrMissingSignature, strings.TrimSpace(s.SignatureHeader))
	}

	secret := strings.TrimSpace(cred.Secret)
	if secret == "" {
		return ErrMissingSecret
	}
	secret = strings.TrimPrefix(secret, strings.TrimSpace(s.SecretPrefix))
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return fmt.Errorf("%w: decode signing secret: %v", ErrMissingSecret, err)
	}

	unix, err := strconv.ParseInt(rawTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimestamp, rawTimestamp)
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	window := s.ReplayWindow
	if window <= 0 {
		window = defaultReplayWindow
	}
	delta := now.Sub(time.Unix(unix, 0).UTC())
	if delta < 0 {
		delta = -delta
	}
	if delta > window {
		return ErrTimestampExpired
	}

	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(id))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(rawTimestamp))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(req.Body)
	expected := mac.Sum(nil)

	versionTag := strings.TrimSpace(s.VersionTag)
	if versionTag == "" {
		versionTag = "v1"
	}
	for _, pair := range strings.Fields(signatureHeader) {
		version, signature, found := strings.Cut(pair, ",")
		if !found || version != versionTag {
			continue
		}
		decoded, decodeErr := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
		if decodeErr != nil {
			continue
		}
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return nil
		}
	}
	return ErrInvalidSignature
}

var _ core.SignatureScheme = TimestampedScheme{}
