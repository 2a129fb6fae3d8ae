package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	otpPattern = regexp.MustCompile(`^[0-9]{4}$`)
	otpSpan    = big.NewInt(9000)

	// otpHashCost is lowered by tests.
	otpHashCost = bcrypt.DefaultCost
)

// generateOTP returns a uniformly random code in 1000-9999.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpan)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", 1000+n.Int64()), nil
}

func hashOTP(code string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(code), otpHashCost)
}

func otpMatches(hash []byte, code string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(code)) == nil
}
