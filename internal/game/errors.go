package game

import "errors"

// ErrWrongPhase is wrapped by rule errors raised because the session is in
// a different phase than the operation requires.
var ErrWrongPhase = errors.New("wrong phase")

// RuleError reports a game rule violation. Its message is shown to the
// player as is; the other fields carry the context the response returns
// alongside it.
type RuleError struct {
	Message         string
	RemainingBudget *int
	Feedback        []string
	cause           error
}

func (e *RuleError) Error() string { return e.Message }

func (e *RuleError) Unwrap() error { return e.cause }

func ruleError(msg string) *RuleError {
	return &RuleError{Message: msg}
}

func phaseError(msg string) *RuleError {
	return &RuleError{Message: msg, cause: ErrWrongPhase}
}

func budgetError(remaining int) *RuleError {
	return &RuleError{
		Message:         "Not enough budget to select this option.",
		RemainingBudget: &remaining,
	}
}
