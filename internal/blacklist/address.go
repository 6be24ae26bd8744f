// Package blacklist validates operator-blocked addresses and keeps the
// token blacklist consulted by every refresh cycle.
package blacklist

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"dex-pair-monitor/internal/domain"
)

// ErrInvalidAddress is returned when an address is neither EVM hex nor a Solana public key.
var ErrInvalidAddress = errors.New("invalid address")

const (
	evmAddressLen    = 42 // "0x" + 40 hex chars
	solanaPubkeySize = 32
)

// Normalize validates address for kind and returns its canonical form.
// EVM addresses are lowercased. Solana addresses must decode to 32 bytes;
// developer wallets must additionally be points on the ed25519 curve,
// which rules out program-derived addresses.
func Normalize(kind domain.BlacklistKind, address string) (string, error) {
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidAddress, kind)
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if hasHexPrefix(address) {
		return normalizeEVM(address)
	}

	decoded, err := base58.Decode(address)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not base58: %v", ErrInvalidAddress, address, err)
	}
	if len(decoded) != solanaPubkeySize {
		return "", fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidAddress, address, len(decoded), solanaPubkeySize)
	}
	if kind == domain.BlacklistDeveloper && !isOnCurve(decoded) {
		return "", fmt.Errorf("%w: %q is off the ed25519 curve, not a wallet", ErrInvalidAddress, address)
	}

	return address, nil
}

// Key returns the lookup key for an address without validating it.
func Key(address string) string {
	address = strings.TrimSpace(address)
	if hasHexPrefix(address) {
		return strings.ToLower(address)
	}
	return address
}

func normalizeEVM(address string) (string, error) {
	if len(address) != evmAddressLen {
		return "", fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidAddress, address, len(address), evmAddressLen)
	}
	if _, err := hex.DecodeString(address[2:]); err != nil {
		return "", fmt.Errorf("%w: %q is not hex", ErrInvalidAddress, address)
	}
	return strings.ToLower(address), nil
}

func hasHexPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isOnCurve(point []byte) bool {
	if len(point) != solanaPubkeySize {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
