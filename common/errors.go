package common

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("bad input")
var ErrInternal = errors.New("internal error")

var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
var ErrMalformedBase64 = errors.New("malformed base64url")
var ErrInvalidSignatureFormat = errors.New("invalid signature format")
var ErrSignatureTooLarge = errors.New("signature integer too large for curve")
var ErrSigning = errors.New("signing failed")

// FormatError reports a decoding failure at a byte offset of the input.
type FormatError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Msg)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
