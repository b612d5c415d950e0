package utils

import (
	"crypto/rand"
	"math/big"
	"net/mail"
)

// EmailValid reports whether email is a bare address. Addresses with a
// display name attached ("Name <a@b.c>") are rejected.
func EmailValid(email string) bool {
	emailAddress, err := mail.ParseAddress(email)
	return err == nil && emailAddress.Address == email
}

// alphanumeric only, so generated ids stay safe in record ids, cookies and
// URLs without escaping
const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const defaultIdLength = 8

// GenerateRandomId returns a random id of the given length (8 when omitted).
// Session and magic link tokens use 48, which reads as 285 bits of entropy.
func GenerateRandomId(length ...int) (string, error) {
	size := defaultIdLength
	if len(length) > 0 {
		size = length[0]
	}

	max := big.NewInt(int64(len(idAlphabet)))
	id := make([]byte, size)
	for i := range id {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}

		id[i] = idAlphabet[num.Int64()]
	}

	return string(id), nil
}
