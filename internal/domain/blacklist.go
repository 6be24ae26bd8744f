package domain

// BlacklistKind is the type of a blacklisted address.
type BlacklistKind string

const (
	BlacklistToken     BlacklistKind = "token"
	BlacklistDeveloper BlacklistKind = "developer"
)

// IsValid checks if the kind is a known value.
func (k BlacklistKind) IsValid() bool {
	return k == BlacklistToken || k == BlacklistDeveloper
}

// BlacklistEntry is an operator-managed blocked address.
// Corresponds to blacklist_entries table in PostgreSQL.
type BlacklistEntry struct {
	Address   string        `json:"address"` // PRIMARY KEY
	Kind      BlacklistKind `json:"kind"`
	Reason    string        `json:"reason"`
	CreatedAt int64         `json:"createdAt"` // record creation timestamp (ms)
}
