// Package canonical provides the deterministic content hashing and the
// structural document diff used by the synchronization engine. Anything that
// compares listing state (queue dedupe, snapshots, drift detection, policy
// refresh) goes through this package so identical content always produces
// identical hashes.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Marshal serializes v into canonical JSON: object keys sorted, no
// insignificant whitespace. The value is round-tripped through the generic
// JSON model so struct field order and input formatting never leak into the
// output bytes.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical marshal: %w", err)
	}
	return Normalize(raw)
}

// Normalize re-encodes raw JSON into canonical form. encoding/json sorts map
// keys on output, which gives the key-order insensitivity the hash contract
// requires.
func Normalize(raw []byte) ([]byte, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("canonical normalize: %w", err)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("canonical normalize: %w", err)
	}
	return out, nil
}

// Hash returns the hex sha256 of the canonical form of v.
func Hash(v interface{}) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashRaw canonicalizes raw JSON bytes and hashes the result.
func HashRaw(raw []byte) (string, error) {
	data, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes hashes bytes that are already in canonical form.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
