package security

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	pinMin = 100000
	pinMax = 999999
)

// GeneratePIN returns a 6 digit code drawn uniformly from 100000-999999
func GeneratePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinMax-pinMin+1))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+pinMin, 10), nil
}
