package services

import (
	"strings"

	"github.com/obotesoftech/prisonreturns/types"
)

// guardWarnAt is the repeat count from which a submission is flagged.
const guardWarnAt = 3

const guardWarning = "Warning: You have submitted the same return 3 times. Please review your submission."

// GuardVerdict is the duplicate-submission outcome reported with a submit.
// A warning never blocks the submission.
type GuardVerdict struct {
	Attempts int    `json:"attemptCount"`
	Warning  bool   `json:"warning"`
	Message  string `json:"message,omitempty"`
}

// NextGuardState folds a submission fingerprint into the guard state. An
// identical fingerprint increments the repeat counter; anything else
// replaces the fingerprint and resets the counter to zero.
func NextGuardState(state types.GuardState, fp types.Fingerprint) types.GuardState {
	if state.Last != nil && *state.Last == fp {
		return types.GuardState{Last: &fp, Attempts: state.Attempts + 1}
	}
	return types.GuardState{Last: &fp}
}

// Verdict reports the warning state for a guard state.
func Verdict(state types.GuardState) GuardVerdict {
	v := GuardVerdict{Attempts: state.Attempts}
	if state.Attempts >= guardWarnAt {
		v.Warning = true
		v.Message = guardWarning
	}
	return v
}

// StateKey names the guard and watermark state of a caller. A client
// profile is kept under the caller's identifier, so one account cannot
// reach another account's state through the profile it sends.
func StateKey(caller types.Session, profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "user:" + caller.Identifier
	}
	return "profile:" + caller.Identifier + ":" + profile
}
