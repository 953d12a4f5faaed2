package services

import (
	"errors"
	"fmt"
)

// ErrorKind mirrors the upstream retry contract: infrastructure errors are
// the only kind the storefront should re-deliver for, configuration errors
// need operator intervention, input and verification errors are final.
type ErrorKind int

const (
	KindConfiguration ErrorKind = iota
	KindInput
	KindVerification
	KindInfrastructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInput:
		return "input"
	case KindVerification:
		return "verification"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

type kindError struct {
	kind ErrorKind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

func configurationErrorf(format string, args ...interface{}) error {
	return &kindError{kind: KindConfiguration, err: fmt.Errorf(format, args...)}
}

func inputErrorf(format string, args ...interface{}) error {
	return &kindError{kind: KindInput, err: fmt.Errorf(format, args...)}
}

func verificationErrorf(format string, args ...interface{}) error {
	return &kindError{kind: KindVerification, err: fmt.Errorf(format, args...)}
}

func infrastructureErrorf(format string, args ...interface{}) error {
	return &kindError{kind: KindInfrastructure, err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of an error. Unclassified errors count as
// infrastructure so the upstream retry fires for them.
func KindOf(err error) ErrorKind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindInfrastructure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
