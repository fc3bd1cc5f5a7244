package verify

import (
	"errors"
	"strings"
)

var (
	ErrMissingSignature = errors.New("verify: signature header is required")
	ErrInvalidSignature = errors.New("verify: signature verification failed")
	ErrMissingSecret    = errors.New("verify: signing secret is required")
	ErrInvalidTimestamp = errors.New("verify: signature timestamp is malformed")
	ErrTimestampExpired = errors.New("verify: signature timestamp outside replay window")
)

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
