package service

import (
	"fmt"
	"unicode"

	"github.com/imobiliare-next/internal/config"
)

// validatePassword 按策略校验管理员密码，违规时返回包裹 ErrWeakPassword 的错误
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, policy.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	missing := ""
	switch {
	case policy.RequireUpper && !hasUpper:
		missing = "an uppercase letter"
	case policy.RequireLower && !hasLower:
		missing = "a lowercase letter"
	case policy.RequireNumber && !hasNumber:
		missing = "a digit"
	case policy.RequireSpecial && !hasSpecial:
		missing = "a special character"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s is required", ErrWeakPassword, missing)
	}
	return nil
}
