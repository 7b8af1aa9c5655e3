package token

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

// roomCodeAlphabet leaves out characters that are easy to confuse (0/O, 1/I)
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomCodeLength is the length of a generated room code
const RoomCodeLength = 5

// Generate returns a crypto-secure random string of length n
// The random string is contains the following characters:
// ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_
func Generate(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// base64 increases size by ~33%
	return base64.RawURLEncoding.EncodeToString(b)[0:n], nil
}

// RoomCode returns a random upper-case room code
func RoomCode() (string, error) {
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	code := make([]byte, RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}

		code[i] = roomCodeAlphabet[n.Int64()]
	}

	return string(code), nil
}
