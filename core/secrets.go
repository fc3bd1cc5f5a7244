package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretGenerator mints endpoint signing secrets. The plaintext secret
// is returned to the caller exactly once, at mint time.
type SecretGenerator interface {
	Generate() (string, error)
}

type RandomSecretGenerator struct{}

func (RandomSecretGenerator) Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("core: generate signing secret: %w", err)
	}
	return "whsec_" + hex.EncodeToString(buf), nil
}

var _ SecretGenerator = RandomSecretGenerator{}
