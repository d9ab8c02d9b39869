package synth

import (
	"errors"
	"fmt"
)

// Reason is the stable, ledger-friendly name of a rejection cause.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonForbiddenShape       Reason = "forbidden_shape"
	ReasonForbiddenType        Reason = "forbidden_type"
	ReasonForbiddenCallableDoc Reason = "forbidden_callable_doc"
	ReasonNoneTypeLeak         Reason = "none_type_leak"
	ReasonSyntaxInvalid        Reason = "syntax_invalid"
	ReasonManifestInvalid      Reason = "manifest_invalid"
	ReasonEmptyArtifact        Reason = "empty_artifact"

	// ReasonUnresolvableType is informational: the parameter stays untyped.
	ReasonUnresolvableType Reason = "unresolvable_type"
)

// Rejection causes. Generation wraps these with detail; match with errors.Is.
var (
	ErrForbiddenShape       = errors.New("forbidden shape")
	ErrForbiddenType        = errors.New("forbidden type")
	ErrForbiddenCallableDoc = errors.New("docstring mentions callable")
	ErrNoneTypeLeak         = errors.New("unresolved NoneType in wrapper")
	ErrSyntaxInvalid        = errors.New("wrapper is not valid Python")
	ErrManifestInvalid      = errors.New("manifest is not valid YAML")
	ErrEmptyArtifact        = errors.New("empty artifact")
)

var reasons = []struct {
	err    error
	reason Reason
}{
	{ErrForbiddenShape, ReasonForbiddenShape},
	{ErrForbiddenType, ReasonForbiddenType},
	{ErrForbiddenCallableDoc, ReasonForbiddenCallableDoc},
	{ErrNoneTypeLeak, ReasonNoneTypeLeak},
	{ErrSyntaxInvalid, ReasonSyntaxInvalid},
	{ErrManifestInvalid, ReasonManifestInvalid},
	{ErrEmptyArtifact, ReasonEmptyArtifact},
}

// ReasonOf maps a rejection error to its Reason. Errors that are not
// rejections map to ReasonNone.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ReasonNone
}

// RejectError reports why a callable produced no artifacts.
type RejectError struct {
	Callable string
	Err      error
	Detail   string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Callable, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Callable, e.Err, e.Detail)
}

func (e *RejectError) Unwrap() error { return e.Err }

func reject(name string, err error, detail string) error {
	return &RejectError{Callable: name, Err: err, Detail: detail}
}
