package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSummary = "summa/summary/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SummaryID computes the content-addressed id of a committed summary from
// its method and its context and modifications documents. Identical
// summaries recorded in different runs share an id.
func SummaryID(method MethodID, context, modifications map[string]any) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"method":        string(method),
		"context":       context,
		"modifications": modifications,
	})
	if err != nil {
		return "", fmt.Errorf("SummaryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSummary, canonical), nil
}
