package utils

import "github.com/google/uuid"

// UUIDGenerator hands out idempotency tokens and trace ids as UUIDv7
// strings, so tokens of one client sort by creation time in the remote's
// idempotency ledger.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (UUIDGenerator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// clock or entropy failure; a random token is still unique
		return uuid.NewString()
	}
	return id.String()
}
