package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTypedProgram separates typed-program fingerprints from any other
// hash computed over canonical JSON. The version suffix allows migration.
const DomainTypedProgram = "verbcheck/typed-program/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of a typed program.
// Validating an unchanged program against unchanged collaborators yields
// the same fingerprint.
func Fingerprint(p *TypedProgram) (string, error) {
	canonical, err := MarshalCanonical(ProgramDoc(p))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainTypedProgram, canonical), nil
}
