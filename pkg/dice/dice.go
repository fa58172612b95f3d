package dice

import (
	"fmt"
	"math/rand/v2"
)

// Outcome labels for a D20 check. The storyteller model is instructed to
// interpret rolls against the same bands.
const (
	OutcomeCritFail    = "Critical Fail!"
	OutcomeFailure     = "Failure"
	OutcomeSuccess     = "Success"
	OutcomeCritSuccess = "Critical Success!"
)

// Roll returns a D20 result in [1, 20].
func Roll() int {
	return rand.IntN(20) + 1
}

// Outcome maps a D20 result to its label:
// 1 crit fail, 2-10 fail, 11-15 success, 16-20 crit success.
func Outcome(result int) string {
	switch {
	case result == 1:
		return OutcomeCritFail
	case result > 15:
		return OutcomeCritSuccess
	case result > 10:
		return OutcomeSuccess
	default:
		return OutcomeFailure
	}
}

// RollText formats a roll result as the user-role transcript line.
func RollText(result int, outcome string) string {
	return fmt.Sprintf("*Rolls D20... Result: %d* (%s)", result, outcome)
}
