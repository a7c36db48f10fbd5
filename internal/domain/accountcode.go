/**
 * @description
 * Account code generation. Codes are fixed-length 14-digit strings: the bank
 * prefix "191", a 3-digit subtype tag, and 8 random decimal digits.
 *
 * @notes
 * - The generator performs no uniqueness check; the store enforces a unique
 *   constraint on account_code and callers retry on collision.
 */
package domain

import (
	"math/rand"
	"strings"
)

// bankCodePrefix is the constant prefix shared by every account code.
const bankCodePrefix = "191"

// assetAccountTags maps asset subtypes to their 3-digit code tag.
var assetAccountTags = map[AssetAccountType]string{
	CreditCardAccount: "201",
	LoanAccount:       "202",
}

// passiveAccountTags maps passive subtypes to their 3-digit code tag.
var passiveAccountTags = map[PassiveAccountType]string{
	SavingsAccount:          "101",
	CheckingAccount:         "102",
	FixedTermSavingsAccount: "103",
}

// GenerateAssetAccountCode produces a 14-digit account code for the given
// asset account subtype.
func GenerateAssetAccountCode(assetType AssetAccountType) string {
	return generateCode(assetAccountTags[assetType])
}

// GeneratePassiveAccountCode produces a 14-digit account code for the given
// passive account subtype.
func GeneratePassiveAccountCode(passiveType PassiveAccountType) string {
	return generateCode(passiveAccountTags[passiveType])
}

func generateCode(tag string) string {
	var builder strings.Builder
	builder.Grow(14)
	builder.WriteString(bankCodePrefix)
	builder.WriteString(tag)
	for i := 0; i < 8; i++ {
		builder.WriteByte(byte('0' + rand.Intn(10)))
	}
	return builder.String()
}
