package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

const checksumSeparator = "###"

// Checksum builds the X-VERIFY value: sha256(material + saltKey) + "###" + saltIndex.
func Checksum(material, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(material + saltKey))
	return hex.EncodeToString(sum[:]) + checksumSeparator + saltIndex
}

// VerifyChecksum compares header against the checksum of material in
// constant time.
func VerifyChecksum(header, material, saltKey, saltIndex string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	expected := Checksum(material, saltKey, saltIndex)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(header)), []byte(strings.ToLower(expected))) == 1
}

// ToPaise converts a rupee amount to integer paise.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromPaise converts integer paise back to rupees.
func FromPaise(paise int64) decimal.Decimal {
	return decimal.New(paise, -2)
}
