package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeAlertID computes a deterministic alert id using SHA256.
// Formula: SHA256(chain_id|pair_address|pair_label|reason|cycle_at_ms)
// The label keeps ids distinct for records that carry no pair address.
// Returns hex-encoded hash (64 characters).
func ComputeAlertID(
	chainID string,
	pairAddress string,
	pairLabel string,
	reason string,
	cycleAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		chainID,
		pairAddress,
		pairLabel,
		reason,
		cycleAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
