package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/axent-pl/jwtmint/b64url"
	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/sig"
	jwtx "github.com/golang-jwt/jwt/v5"
)

// Inspection is the decoded, unverified content of a compact token.
type Inspection struct {
	Alg         sig.SigAlg
	Header      map[string]any
	Claims      jwtx.MapClaims
	HeaderJSON  []byte
	PayloadJSON []byte
	Signature   []byte
	ExpiresAt   *time.Time
}

// Inspect decodes a compact token without checking its signature. The
// header must name a supported algorithm.
func Inspect(compact string) (Inspection, error) {
	compact = strings.TrimSpace(compact)
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return Inspection{}, fmt.Errorf("%w: token has %d segments, want 3", common.ErrInvalidInput, len(parts))
	}

	var out Inspection
	var err error
	if out.HeaderJSON, err = b64url.Decode(parts[0]); err != nil {
		return Inspection{}, fmt.Errorf("header: %w", err)
	}
	if out.PayloadJSON, err = b64url.Decode(parts[1]); err != nil {
		return Inspection{}, fmt.Errorf("payload: %w", err)
	}
	if out.Signature, err = b64url.Decode(parts[2]); err != nil {
		return Inspection{}, fmt.Errorf("signature: %w", err)
	}
	if !json.Valid(out.HeaderJSON) || !json.Valid(out.PayloadJSON) {
		return Inspection{}, fmt.Errorf("%w: header or payload is not JSON", common.ErrInvalidInput)
	}

	claims := jwtx.MapClaims{}
	token, _, err := jwtx.NewParser(jwtx.WithPaddingAllowed()).ParseUnverified(compact, claims)
	if errors.Is(err, jwtx.ErrTokenUnverifiable) {
		return Inspection{}, fmt.Errorf("%w: %w", common.ErrUnsupportedAlgorithm, err)
	}
	if err != nil {
		return Inspection{}, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	if out.Alg, err = sig.FromGoJWT(token.Method); err != nil {
		return Inspection{}, err
	}
	out.Header = token.Header
	out.Claims = claims

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		out.ExpiresAt = &t
	}
	return out, nil
}
