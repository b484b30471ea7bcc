package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the algorithm
// to change without old ledgers comparing equal to new fingerprints.
const (
	DomainContent = "callgen/content/v1"
	DomainModel   = "callgen/model/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentFingerprint identifies a generated file's bytes.
func ContentFingerprint(content []byte) string {
	return hashWithDomain(DomainContent, content)
}

// ModelFingerprint identifies a resolved model (a Library, a slice of
// libraries, or any JSON-encodable value) by its canonical JSON.
func ModelFingerprint(v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ModelFingerprint: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}
