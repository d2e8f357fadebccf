package bbpe

import "fmt"

// ErrorCode is the closed taxonomy from spec.md §6. It is never extended
// at runtime; every error this package builds itself carries one of
// these. An error from the regex engine during a Split match is wrapped
// and returned as is, without a code.
type ErrorCode int

const (
	Ok ErrorCode = 0

	ErrMemory          ErrorCode = -1
	ErrJSONParse       ErrorCode = -2
	ErrVocabMissing    ErrorCode = -3
	ErrRegexCompile    ErrorCode = -4
	ErrTokenNotFound   ErrorCode = -5
	ErrInvalidInput    ErrorCode = -6
	ErrUnsupportedType ErrorCode = -7
)

func (c ErrorCode) String() string {
	switch c {
	case Ok:
		return "Ok"
	case ErrMemory:
		return "Memory"
	case ErrJSONParse:
		return "JsonParse"
	case ErrVocabMissing:
		return "VocabMissing"
	case ErrRegexCompile:
		return "RegexCompile"
	case ErrTokenNotFound:
		return "TokenNotFound"
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrUnsupportedType:
		return "UnsupportedType"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// codedError pairs a closed ErrorCode with a human-readable message. It
// is the leaf of every error chain this package produces; callers that
// need the closed code back after github.com/pkg/errors wrapping should
// use CodeOf.
type codedError struct {
	code ErrorCode
	msg  string
}

func (e *codedError) Error() string { return e.msg }

func (e *codedError) Code() ErrorCode { return e.code }

func newError(code ErrorCode, format string, args ...any) error {
	return &codedError{code: code, msg: fmt.Sprintf(format, args...)}
}

// CodeOf recovers the closed ErrorCode carried by err, unwrapping any
// github.com/pkg/errors (or stdlib errors.Wrap-style) chain along the
// way. It returns false for errors this package did not originate.
func CodeOf(err error) (ErrorCode, bool) {
	type coder interface{ Code() ErrorCode }
	for err != nil {
		if c, ok := err.(coder); ok {
			return c.Code(), true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}
