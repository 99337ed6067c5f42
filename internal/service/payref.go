package service

import (
	"crypto/rand"
	"fmt"
)

const (
	paymentRefPrefix = "KM-"
	paymentRefLength = 6
	// No 0/O/1/I: references are dictated over the phone
	paymentRefCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// newPaymentRef generates a human-readable payment reference. The charset
// has 32 symbols, so mapping random bytes by modulo is bias-free.
func newPaymentRef() (string, error) {
	buf := make([]byte, paymentRefLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	code := make([]byte, paymentRefLength)
	for i, b := range buf {
		code[i] = paymentRefCharset[int(b)%len(paymentRefCharset)]
	}
	return paymentRefPrefix + string(code), nil
}
