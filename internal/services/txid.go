package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	transactionIDLength   = 6
	transactionIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// IDGenerator returns a fresh transaction id.
type IDGenerator func() (string, error)

// NewTransactionID returns 6 characters drawn uniformly from [0-9A-Z].
func NewTransactionID() (string, error) {
	max := big.NewInt(int64(len(transactionIDAlphabet)))
	id := make([]byte, transactionIDLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate transaction id: %w", err)
		}
		id[i] = transactionIDAlphabet[n.Int64()]
	}
	return string(id), nil
}
