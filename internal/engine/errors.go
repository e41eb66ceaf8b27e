package engine

import (
	"errors"
	"fmt"
)

// RuntimeError describes a rule that could not be applied.
// The engine logs these and carries on with the remaining rules.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Rule is the failing rule's name.
	Rule string

	// Target is the rule target, rendered with its instance.
	Target string

	// Err is the underlying error, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeRuleFault indicates the rule returned an error or panicked.
	ErrCodeRuleFault RuntimeErrorCode = "RULE_FAULT"

	// ErrCodeBadArity indicates the rule returned the wrong number of items.
	ErrCodeBadArity RuntimeErrorCode = "BAD_ARITY"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s, target=%s)", e.Code, e.Message, e.Rule, e.Target)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRuleFault returns true if err is a rule fault.
// Uses errors.As to handle wrapped errors.
func IsRuleFault(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRuleFault
	}
	return false
}

// IsBadArity returns true if err reports a rule returning the wrong
// number of items.
func IsBadArity(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeBadArity
	}
	return false
}
