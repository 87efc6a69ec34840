package domain

import (
	"fmt"
	"unicode/utf8"
)

const maxPlayerNameLength = 32

// ValidateAmount checks that an amount is not negative. Zero is a legal no-op amount.
func ValidateAmount(amount int64) error {
	if amount < 0 {
		return ErrInvalidArgument(fmt.Sprintf("amount must not be negative, got %d", amount))
	}
	return nil
}

// ValidatePlayerName checks an effective or custom player name.
func ValidatePlayerName(name string) error {
	if name == "" {
		return ErrInvalidArgument("player name is required")
	}
	if n := utf8.RuneCountInString(name); n > maxPlayerNameLength {
		return ErrInvalidArgument(fmt.Sprintf("player name too long: %d > %d characters", n, maxPlayerNameLength))
	}
	return nil
}
