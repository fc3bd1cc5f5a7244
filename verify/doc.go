// Package verify implements the signature schemes providers sign their
// webhook requests with. Every scheme operates on the raw request bytes
// and fails closed: missing or malformed signature material is rejected
// before any payload parsing happens.
package verify
