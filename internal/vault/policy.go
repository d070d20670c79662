package vault

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/credvault/credvault/internal/common"
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const minMasterPasswordLength = 12

const specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_{|}~`"

// ValidateMasterPassword applies the master password policy: minimum length
// plus at least one uppercase letter, one digit and one special character.
// Violations are reported as common.ErrValidation.
func ValidateMasterPassword(password []byte) error {
	pw := string(password)
	if len(pw) < minMasterPasswordLength {
		return fmt.Errorf("%w: master password must be at least %d characters", common.ErrValidation, minMasterPasswordLength)
	}
	if !hasUpper(pw) {
		return fmt.Errorf("%w: master password must include an uppercase letter", common.ErrValidation)
	}
	if !hasDigit(pw) {
		return fmt.Errorf("%w: master password must include a digit", common.ErrValidation)
	}
	if !hasSpecial(pw) {
		return fmt.Errorf("%w: master password must include a special character", common.ErrValidation)
	}
	return nil
}

// PasswordStrength estimates the password's resistance to guessing on the
// usual 0..4 scale. Shown to the user at registration and rotation; scores
// below 2 are logged as a warning but do not block the operation.
func PasswordStrength(password []byte) int {
	return zxcvbn.PasswordStrength(string(password), nil).Score
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasSpecial(s string) bool {
	for _, r := range s {
		if strings.ContainsRune(specialChars, r) {
			return true
		}
	}
	return false
}
