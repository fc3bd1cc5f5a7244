package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// SDKScheme hands verification to a vendor SDK function. The function
// receives the raw body, the provider signature header, and the tenant
// secret, and is expected to reject tampered or expired signatures on
// its own.
type SDKScheme struct {
	SignatureHeader string
	VerifyFunc      func(payload []byte, signatureHeader string, secret string) error
}

func (s SDKScheme) Verify(_ context.Context, req core.InboundRequest, cred core.Credential) error {
	if s.VerifyFunc == nil {
		return fmt.Errorf("verify: sdk scheme requires a verify function")
	}
	header := headerValue(req.Headers, s.SignatureHeader)
	if header == "" {
		return fmt.Errorf("%w: %s", ErrMissingSignature, strings.TrimSpace(s.SignatureHeader))
	}
	secret := strings.TrimSpace(cred.Secret)
	if secret == "" {
		return ErrMissingSecret
	}
	if err := s.VerifyFunc(req.Body, header, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

var _ core.SignatureScheme = SDKScheme{}
