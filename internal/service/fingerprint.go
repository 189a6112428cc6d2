package service

import (
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
)

const (
	fingerprintLen    = 32
	maxFingerprintLen = 64
)

// Fingerprinter derives the anonymous requester identifier used for street creds.
// It is a client fingerprint, not an identity.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter keys the hash with secret. blake2b accepts keys up to 64 bytes.
func NewFingerprinter(secret string) *Fingerprinter {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &Fingerprinter{key: key}
}

// Requester returns the client-supplied fingerprint when present, otherwise a
// keyed hash of the network address and user agent. Client fingerprints that
// are too long or not valid UTF-8 are hashed as well.
func (f *Fingerprinter) Requester(clientFingerprint, ip, userAgent string) string {
	if fp := strings.TrimSpace(clientFingerprint); fp != "" {
		if len(fp) > maxFingerprintLen || !utf8.ValidString(fp) {
			return f.digest("client|" + fp)
		}
		return fp
	}
	return f.digest(ip + "|" + userAgent)
}

func (f *Fingerprinter) digest(value string) string {
	h, err := blake2b.New256(f.key)
	if err != nil {
		// Only reachable with an oversized key, which NewFingerprinter prevents.
		sum := blake2b.Sum256([]byte(value))
		return hex.EncodeToString(sum[:])[:fingerprintLen]
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLen]
}
