// internal/game/feedback.go
//
// Feedback engine shared by every room.
// Responsibilities:
//   - Normalise and validate raw guesses (length, letters only).
//   - Score guesses using the classic two-pass duplicate-aware algorithm.
//
// Evaluate is pure: no state, deterministic for the same inputs.
package game

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize trims and upper-cases a word. Secrets and guesses are always
// compared in this form.
func Normalize(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

// ValidateGuess checks a normalised guess against the word shape rules.
func ValidateGuess(guess string) error {
	if n := utf8.RuneCountInString(guess); n != WordLength {
		return fmt.Errorf("%w: got %d letters", ErrInvalidGuessLength, n)
	}
	for _, r := range guess {
		if !unicode.IsLetter(r) {
			return fmt.Errorf("%w: %q", ErrInvalidGuessCharacters, r)
		}
	}
	return nil
}

// Evaluate scores guess against secret.
//
// Pass 1:
//   - Mark exact matches as correct.
//   - Count the remaining (non-matched) secret letters.
//
// Pass 2:
//   - For each non-correct guess letter: if that letter still has a count,
//     mark present and decrement; otherwise mark absent.
//
// A letter is therefore never reported correct+present more times than it
// occurs in the secret. Both inputs are expected to have the same length;
// positions past the end of secret are absent.
func Evaluate(secret, guess string) []Status {
	s := []rune(Normalize(secret))
	g := []rune(Normalize(guess))
	res := make([]Status, len(g))

	available := make(map[rune]int, len(s))
	for i := range g {
		if i < len(s) && g[i] == s[i] {
			res[i] = StatusCorrect
		}
	}
	for i, r := range s {
		if i >= len(g) || g[i] != r {
			available[r]++
		}
	}

	for i, r := range g {
		if res[i] == StatusCorrect {
			continue
		}
		if available[r] > 0 {
			res[i] = StatusPresent
			available[r]--
		} else {
			res[i] = StatusAbsent
		}
	}
	return res
}

// AllCorrect reports whether every status is correct.
func AllCorrect(fb []Status) bool {
	if len(fb) == 0 {
		return false
	}
	for _, st := range fb {
		if st != StatusCorrect {
			return false
		}
	}
	return true
}
