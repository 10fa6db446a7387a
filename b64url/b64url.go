// Package b64url implements the unpadded URL-safe base64 encoding used by
// every JWT segment.
package b64url

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/axent-pl/jwtmint/common"
)

var enc = base64.URLEncoding.Strict()

// Encode returns the URL-safe base64 form of data with all '=' padding removed.
func Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode reverses Encode. Missing padding is restored before decoding, so
// both padded and unpadded input is accepted.
func Decode(text string) ([]byte, error) {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return nil, &common.FormatError{Offset: i, Msg: "line break in input", Err: common.ErrMalformedBase64}
	}
	pad := (4 - len(text)%4) % 4
	padded := text + strings.Repeat("=", pad)

	data, err := enc.DecodeString(padded)
	if err != nil {
		offset := len(text)
		var cie base64.CorruptInputError
		if errors.As(err, &cie) && int(cie) < offset {
			offset = int(cie)
		}
		return nil, &common.FormatError{Offset: offset, Msg: err.Error(), Err: common.ErrMalformedBase64}
	}
	return data, nil
}
