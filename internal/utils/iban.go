package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const ibanBankCode = "PRTB"

// GenerateIBAN generates a Romanian-format IBAN: country code, two
// check digits computed via mod-97, a four-letter bank code and a
// 16-digit account number.
func GenerateIBAN(countryCode string) (string, error) {
	digits := make([]byte, 16)
	if _, err := rand.Read(digits); err != nil {
		return "", fmt.Errorf("failed to generate account number: %w", err)
	}
	var builder strings.Builder
	for _, b := range digits {
		builder.WriteByte(b%10 + '0')
	}
	bban := ibanBankCode + builder.String()

	check, err := ibanCheckDigits(countryCode, bban)
	if err != nil {
		return "", err
	}
	return countryCode + check + bban, nil
}

// ValidateIBAN checks structure for any IBAN and the mod-97 checksum
// for Romanian ones. Foreign check digits are not locally verifiable,
// so non-RO codes only get the structural check.
func ValidateIBAN(iban string) bool {
	if len(iban) < 8 || len(iban) > 34 {
		return false
	}
	iban = strings.ToUpper(iban)
	for _, c := range iban {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	if !strings.HasPrefix(iban, "RO") {
		return true
	}
	n, ok := ibanNumeric(iban[4:] + iban[:4])
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

// ibanCheckDigits computes the two check digits so that the rearranged
// numeric encoding is congruent to 1 mod 97.
func ibanCheckDigits(countryCode, bban string) (string, error) {
	n, ok := ibanNumeric(bban + countryCode + "00")
	if !ok {
		return "", fmt.Errorf("invalid IBAN characters in %q", bban+countryCode)
	}
	rem := new(big.Int).Mod(n, big.NewInt(97)).Int64()
	return fmt.Sprintf("%02d", 98-rem), nil
}

// ibanNumeric maps letters to base-36 values (A=10 .. Z=35) and builds
// the resulting decimal number.
func ibanNumeric(s string) (*big.Int, bool) {
	var builder strings.Builder
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			builder.WriteRune(c)
		case c >= 'A' && c <= 'Z':
			builder.WriteString(fmt.Sprintf("%d", c-'A'+10))
		default:
			return nil, false
		}
	}
	n, ok := new(big.Int).SetString(builder.String(), 10)
	return n, ok
}
