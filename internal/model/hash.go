package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for content-addressed event identity.
// Version suffix enables future algorithm migration.
const DomainEvent = "ombu/event/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed id of an event.
// The id is stable across backends and restarts given the same inputs.
func EventID(seq uint64, callID string, typ EventType, payload []byte) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"seq":     seq,
		"call_id": callID,
		"type":    string(typ),
		"payload": string(payload),
	})
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}
