package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIBAN(t *testing.T) {
	iban, err := GenerateIBAN("RO")
	require.NoError(t, err)

	assert.Len(t, iban, 24)
	assert.True(t, strings.HasPrefix(iban, "RO"))
	assert.Contains(t, iban, ibanBankCode)
	assert.True(t, ValidateIBAN(iban), "generated IBAN %s must validate", iban)
}

func TestGenerateIBANUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		iban, err := GenerateIBAN("RO")
		require.NoError(t, err)
		assert.False(t, seen[iban], "duplicate IBAN %s", iban)
		seen[iban] = true
	}
}

func TestValidateIBAN(t *testing.T) {
	tests := []struct {
		name  string
		iban  string
		valid bool
	}{
		{"known good romanian", "RO49AAAA1B31007593840000", true},
		{"bad checksum", "RO00AAAA1B31007593840000", false},
		{"tampered body", "RO49AAAA1B31007593840001", false},
		{"foreign accepted structurally", "DE00000000000000000000", true},
		{"too short", "RO49", false},
		{"illegal characters", "RO49AAAA1B3100759384000!", false},
		{"lowercase normalized", "ro49aaaa1b31007593840000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateIBAN(tt.iban))
		})
	}
}

func TestGenerateCardNumber(t *testing.T) {
	number, err := GenerateCardNumber("400000", 16)
	require.NoError(t, err)
	assert.Len(t, number, 16)
	assert.True(t, strings.HasPrefix(number, "400000"))

	_, err = GenerateCardNumber("400000", 25)
	assert.Error(t, err)
}

func TestGeneratePINAndCVV(t *testing.T) {
	assert.Len(t, GenerateCVV(), 3)
	assert.Len(t, GeneratePIN(), 4)
	for _, c := range GeneratePIN() {
		assert.True(t, c >= '0' && c <= '9')
	}
}
