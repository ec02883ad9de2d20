// internal/game/types.go
//
// Core type definitions for the Maratona feedback engine.
// Defines:
//   - Status: per-letter result of a guess (correct/present/absent).
//   - Guess: one immutable, evaluated guess attributed to a durable player.

package game

// WordLength is the fixed number of letters of every secret and guess.
const WordLength = 5

// Status represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter matches the secret at that position.
//   - "present": letter exists elsewhere in the secret (duplicate-aware).
//   - "absent":  letter is not available to match.
type Status string

const (
	StatusCorrect Status = "correct"
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Guess is a single evaluated guess. It is created once and never mutated;
// PlayerID is the durable id of the submitter, not its connection id.
type Guess struct {
	PlayerID string   `json:"playerId"`
	Word     string   `json:"word"`
	Feedback []Status `json:"feedback"`
}
