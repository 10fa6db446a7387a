package jwt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/axent-pl/jwtmint/b64url"
	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/ecsig"
	"github.com/axent-pl/jwtmint/sig"
)

const TypeJWT = "JWT"

// Header is the JOSE header. Field order fixes the serialized key order.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Payload is the claim set. Field order fixes the serialized key order.
type Payload struct {
	Exp int64  `json:"exp"`
	Iss string `json:"iss"`
	Sub string `json:"sub"`
}

// Token is a minted JWT together with the parts it was assembled from.
type Token struct {
	Alg         sig.SigAlg
	Header      Header
	Payload     Payload
	HeaderJSON  []byte
	PayloadJSON []byte
	Signature   []byte // JOSE form
	Compact     string
}

// Builder assembles compact tokens. The zero value needs only a Signer.
type Builder struct {
	Signer sig.Signer

	// Now defaults to time.Now.
	Now func() time.Time
}

// Build mints a token with the given algorithm name and returns its compact form.
func Build(alg, issuer, subject string, exp time.Duration, signer sig.Signer) (string, error) {
	token, err := Builder{Signer: signer}.Mint(context.Background(), alg, issuer, subject, exp)
	if err != nil {
		return "", err
	}
	return token.Compact, nil
}

// Build is Mint returning only the compact serialization.
func (b Builder) Build(ctx context.Context, alg, issuer, subject string, exp time.Duration) (string, error) {
	token, err := b.Mint(ctx, alg, issuer, subject, exp)
	if err != nil {
		return "", err
	}
	return token.Compact, nil
}

// Mint builds header and payload, signs header.payload with the Signer and
// returns the assembled token. Errors from the Signer are returned as is.
func (b Builder) Mint(ctx context.Context, alg, issuer, subject string, exp time.Duration) (Token, error) {
	sigAlg, err := sig.Parse(alg)
	if err != nil {
		return Token{}, err
	}
	spec, err := sigAlg.ToCrypto()
	if err != nil {
		return Token{}, err
	}
	if b.Signer == nil {
		return Token{}, fmt.Errorf("%w: no signer", common.ErrInvalidInput)
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	expiresAt := now().Add(exp).Unix()
	if expiresAt < 0 {
		return Token{}, fmt.Errorf("%w: exp %d is negative", common.ErrInvalidInput, expiresAt)
	}

	token := Token{
		Alg:     sigAlg,
		Header:  Header{Alg: spec.Name, Typ: TypeJWT},
		Payload: Payload{Exp: expiresAt, Iss: issuer, Sub: subject},
	}
	if token.HeaderJSON, err = marshalJSON(token.Header); err != nil {
		return Token{}, fmt.Errorf("could not marshal header: %w", err)
	}
	if token.PayloadJSON, err = marshalJSON(token.Payload); err != nil {
		return Token{}, fmt.Errorf("could not marshal payload: %w", err)
	}

	signingInput := b64url.Encode(token.HeaderJSON) + "." + b64url.Encode(token.PayloadJSON)

	raw, err := b.Signer.Sign(ctx, []byte(signingInput), spec)
	if err != nil {
		return Token{}, err
	}

	token.Signature = raw
	if spec.Key == sig.KeyECDSA {
		token.Signature, err = ecsig.DERToJOSE(raw, spec.OutputWidth)
		if err != nil {
			return Token{}, fmt.Errorf("%s signature: %w", spec.Name, err)
		}
	}

	token.Compact = signingInput + "." + b64url.Encode(token.Signature)
	return token, nil
}

// marshalJSON encodes v compactly without escaping <, > and &.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// SigningInput returns the header.payload part of a compact token.
func (t Token) SigningInput() string {
	return b64url.Encode(t.HeaderJSON) + "." + b64url.Encode(t.PayloadJSON)
}

// ExpiresAt returns exp as a time.
func (t Token) ExpiresAt() time.Time {
	return time.Unix(t.Payload.Exp, 0)
}
