package services

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/khabaroff/lms-admin/src/apperr"
)

// DefaultBcryptCost is the work factor for stored password hashes
const DefaultBcryptCost = 12

// DefaultGeneratedPasswordLength is used when GenerateRandomPassword gets a non-positive length
const DefaultGeneratedPasswordLength = 12

// StrongPasswordScore is the minimum score reported as strong
const StrongPasswordScore = 6

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var commonPatterns = []string{"123", "abc", "qwe"}

// PasswordStrength is an advisory score. It is never a gate for account creation.
type PasswordStrength struct {
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
	IsStrong bool     `json:"is_strong"`
}

// PasswordService hashes and verifies passwords with bcrypt
type PasswordService struct {
	cost int
}

// NewPasswordService creates a password service with the default cost
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultBcryptCost}
}

// NewPasswordServiceWithCost creates a password service with a custom cost (for testing)
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordService{cost: cost}
}

// Hash returns a salted bcrypt hash
func (s *PasswordService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("password.hash", map[string]string{
				"password": "password must be at most 72 bytes",
			})
		}
		return "", apperr.WithCause(apperr.KindInternal, "password.hash", "failed to hash password", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A mismatch is (false, nil);
// only a malformed hash or backend failure returns an error.
func (s *PasswordService) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperr.WithCause(apperr.KindInternal, "password.verify", "failed to verify password", err)
	}
}

// CheckStrength scores a password from 0 to 8
func (s *PasswordService) CheckStrength(password string) PasswordStrength {
	var (
		score    int
		feedback []string
	)

	length := len([]rune(password))
	if length >= 8 {
		score++
	} else {
		feedback = append(feedback, "Password should be at least 8 characters long")
	}
	if length >= 12 {
		score++
	} else {
		feedback = append(feedback, "Consider using 12 or more characters")
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			hasSpecial = true
		}
	}

	classes := []struct {
		ok  bool
		msg string
	}{
		{hasLower, "Add lowercase letters"},
		{hasUpper, "Add uppercase letters"},
		{hasDigit, "Add numbers"},
		{hasSpecial, "Add special characters"},
	}
	for _, c := range classes {
		if c.ok {
			score++
		} else {
			feedback = append(feedback, c.msg)
		}
	}

	if hasRepeatedRun(password, 3) {
		feedback = append(feedback, "Avoid repeating the same character")
	} else {
		score++
	}

	lowered := strings.ToLower(password)
	common := false
	for _, p := range commonPatterns {
		if strings.Contains(lowered, p) {
			common = true
			break
		}
	}
	if common {
		feedback = append(feedback, "Avoid common sequences like 123, abc or qwe")
	} else {
		score++
	}

	return PasswordStrength{
		Score:    score,
		Feedback: feedback,
		IsStrong: score >= StrongPasswordScore,
	}
}

// hasRepeatedRun reports whether any character occurs n or more times in a row
func hasRepeatedRun(s string, n int) bool {
	run := 0
	var prev rune
	for i, r := range []rune(s) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

// GenerateRandomPassword returns a password with at least one lowercase, uppercase,
// digit and special character, shuffled. Used for operator-assisted resets.
func (s *PasswordService) GenerateRandomPassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultGeneratedPasswordLength
	}
	classes := []string{lowerChars, upperChars, digitChars, specialChars}
	if length < len(classes) {
		length = len(classes)
	}
	all := lowerChars + upperChars + digitChars + specialChars

	out := make([]byte, 0, length)
	for _, set := range classes {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, apperr.WithCause(apperr.KindInternal, "password.generate", "failed to generate random password", err)
	}
	return int(v.Int64()), nil
}
