package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// GenerateCardNumber generates a card number with the specified prefix
// and length.
func GenerateCardNumber(prefix string, length int) (string, error) {
	if length < len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}

	digits := make([]byte, length-len(prefix))
	if _, err := rand.Read(digits); err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(prefix)
	for _, b := range digits {
		builder.WriteByte(b%10 + '0')
	}
	return builder.String(), nil
}

// GenerateExpiryDate generates a card expiry date (MM/YY), three years out.
func GenerateExpiryDate() string {
	now := time.Now()
	return fmt.Sprintf("%02d/%02d", now.Month(), (now.Year()+3)%100)
}

// GenerateCVV generates a 3-digit CVV code.
func GenerateCVV() string {
	return randomDigits(3)
}

// GeneratePIN generates a 4-digit card PIN.
func GeneratePIN() string {
	return randomDigits(4)
}

func randomDigits(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	var builder strings.Builder
	for _, c := range b {
		builder.WriteByte(c%10 + '0')
	}
	return builder.String()
}
