// Package ecsig converts ECDSA signatures between the ASN.1 DER form
// produced by generic signing primitives and the fixed-width r||s form JWS
// requires (RFC 7518, section 3.4).
//
// The DER parser reads only short-form INTEGER lengths. The SEQUENCE header
// additionally accepts the one-byte long form (0x81 nn) that P-521
// signatures need; every other long form is rejected.
package ecsig

import (
	"fmt"
	"math/big"

	"github.com/axent-pl/jwtmint/common"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

const (
	tagSequence = 0x30
	tagInteger  = 0x02

	minDERLength = 8
)

// DERToJOSE parses der as SEQUENCE { INTEGER r, INTEGER s } and returns
// r||s with each half left-padded with zeros to width bytes.
func DERToJOSE(der []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: output width %d", common.ErrInvalidInput, width)
	}
	if len(der) < minDERLength {
		return nil, formatErr(0, "signature is %d bytes, need at least %d", len(der), minDERLength)
	}
	if der[0] != tagSequence {
		return nil, formatErr(0, "expected SEQUENCE tag 0x30, got 0x%02x", der[0])
	}

	idx := 1
	seqLen := int(der[idx])
	idx++
	switch {
	case seqLen < 0x80:
	case seqLen == 0x81:
		seqLen = int(der[idx])
		idx++
		if seqLen < 0x80 {
			return nil, formatErr(1, "non-minimal SEQUENCE length encoding")
		}
	default:
		return nil, formatErr(1, "unsupported SEQUENCE length encoding 0x%02x", seqLen)
	}
	if seqLen != len(der)-idx {
		return nil, formatErr(1, "SEQUENCE length %d does not match %d remaining bytes", seqLen, len(der)-idx)
	}

	r, idx, err := readInteger(der, idx)
	if err != nil {
		return nil, err
	}
	s, idx, err := readInteger(der, idx)
	if err != nil {
		return nil, err
	}
	if idx != len(der) {
		return nil, formatErr(idx, "%d trailing bytes after s", len(der)-idx)
	}

	out := make([]byte, 2*width)
	if err := leftPad(out[:width], r, rOffset(der)); err != nil {
		return nil, err
	}
	if err := leftPad(out[width:], s, idx-len(s)); err != nil {
		return nil, err
	}
	return out, nil
}

// JOSEToDER splits r||s in half and encodes it as a minimal DER SEQUENCE.
func JOSEToDER(jose []byte) ([]byte, error) {
	if len(jose) == 0 || len(jose)%2 != 0 {
		return nil, formatErr(0, "fixed-width signature has odd or zero length %d", len(jose))
	}
	width := len(jose) / 2
	r := new(big.Int).SetBytes(jose[:width])
	s := new(big.Int).SetBytes(jose[width:])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}

// readInteger reads a short-form DER INTEGER at idx and returns its content
// bytes and the index just past it.
func readInteger(der []byte, idx int) ([]byte, int, error) {
	if idx >= len(der) {
		return nil, idx, formatErr(idx, "truncated before INTEGER tag")
	}
	if der[idx] != tagInteger {
		return nil, idx, formatErr(idx, "expected INTEGER tag 0x02, got 0x%02x", der[idx])
	}
	idx++
	if idx >= len(der) {
		return nil, idx, formatErr(idx, "truncated before INTEGER length")
	}
	n := int(der[idx])
	if n >= 0x80 {
		return nil, idx, formatErr(idx, "unsupported long-form INTEGER length 0x%02x", n)
	}
	if n == 0 {
		return nil, idx, formatErr(idx, "empty INTEGER")
	}
	idx++
	if idx+n > len(der) {
		return nil, idx, formatErr(idx, "INTEGER of %d bytes truncated, %d available", n, len(der)-idx)
	}
	return der[idx : idx+n], idx + n, nil
}

// leftPad copies the integer into dst right-aligned. offset locates raw in
// the DER input for error reporting.
func leftPad(dst, raw []byte, offset int) error {
	if len(raw) > len(dst) && raw[0] == 0x00 {
		raw = raw[1:]
		offset++
	}
	if len(raw) > len(dst) {
		return &common.FormatError{
			Offset: offset,
			Msg:    fmt.Sprintf("integer is %d bytes, curve width is %d", len(raw), len(dst)),
			Err:    common.ErrSignatureTooLarge,
		}
	}
	copy(dst[len(dst)-len(raw):], raw)
	return nil
}

// rOffset returns the index of the first content byte of r in a DER input
// that has already been validated.
func rOffset(der []byte) int {
	if der[1] == 0x81 {
		return 5
	}
	return 4
}

func formatErr(offset int, format string, args ...any) error {
	return &common.FormatError{
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
		Err:    common.ErrInvalidSignatureFormat,
	}
}
