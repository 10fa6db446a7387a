// Package jwks renders public keys as an RFC 7517 JWK Set file, so relying
// parties can be handed the key a token was signed with.
package jwks

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/axent-pl/jwtmint/b64url"
	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/common/logx"
	"github.com/axent-pl/jwtmint/sig"
)

type JSONWebKey struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// Thumbprint is the RFC 7638 SHA-256 thumbprint of the required members.
func (k JSONWebKey) Thumbprint() (string, error) {
	var canonical string
	switch k.Kty {
	case "RSA":
		canonical = fmt.Sprintf(`{"e":"%s","kty":"RSA","n":"%s"}`, k.E, k.N)
	case "EC":
		canonical = fmt.Sprintf(`{"crv":"%s","kty":"EC","x":"%s","y":"%s"}`, k.Crv, k.X, k.Y)
	default:
		return "", fmt.Errorf("%w: key type %q", common.ErrInvalidInput, k.Kty)
	}
	sum := sha256.Sum256([]byte(canonical))
	return b64url.Encode(sum[:]), nil
}

// Key is a public key published for an algorithm. An empty Kid is replaced
// by the key thumbprint.
type Key struct {
	Kid    string
	Public crypto.PublicKey
	Alg    sig.SigAlg
}

func (k Key) JWK() (JSONWebKey, error) {
	spec, err := k.Alg.ToCrypto()
	if err != nil {
		return JSONWebKey{}, err
	}
	if err := sig.CheckKey(k.Public, spec); err != nil {
		return JSONWebKey{}, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	jwk := JSONWebKey{
		Use: "sig",
		Alg: spec.Name,
	}
	switch pk := k.Public.(type) {
	case *rsa.PublicKey:
		jwk.Kty = "RSA"
		jwk.N = b64url.Encode(pk.N.Bytes())
		jwk.E = b64url.Encode(big.NewInt(int64(pk.E)).Bytes())
	case *ecdsa.PublicKey:
		jwk.Kty = "EC"
		jwk.Crv = pk.Curve.Params().Name
		jwk.X = b64url.Encode(pk.X.FillBytes(make([]byte, spec.OutputWidth)))
		jwk.Y = b64url.Encode(pk.Y.FillBytes(make([]byte, spec.OutputWidth)))
	default:
		return JSONWebKey{}, fmt.Errorf("%w: unsupported key type %T", common.ErrInvalidInput, pk)
	}

	jwk.Kid = k.Kid
	if jwk.Kid == "" {
		if jwk.Kid, err = jwk.Thumbprint(); err != nil {
			return JSONWebKey{}, err
		}
	}
	return jwk, nil
}

// -- issue params
type IssueParams struct {
	Keys []Key
}

func (IssueParams) Kind() common.Kind { return common.JWKS }

type jwksPayload struct {
	Issuer       string       `json:"issuer,omitempty"`
	ValidMethods []string     `json:"valid_methods,omitempty"`
	Keys         []JSONWebKey `json:"keys"`
}

// issuer
type Issuer struct{}

var _ common.Issuer = Issuer{}

func (Issuer) Kind() common.Kind { return common.JWKS }

// Issue renders the keys as a JWK Set attributed to the principal.
func (iss Issuer) Issue(ctx context.Context, principal common.Principal, issueParams common.IssueParams) ([]common.Artifact, error) {
	params, ok := issueParams.(IssueParams)
	if !ok {
		logx.L().Debug("could not cast IssueParams to jwks.IssueParams", "context", ctx)
		return nil, common.ErrInternal
	}

	set := jwksPayload{
		Issuer: string(principal.Subject),
		Keys:   make([]JSONWebKey, 0, len(params.Keys)),
	}
	seen := make(map[string]struct{})
	for _, key := range params.Keys {
		jwk, err := key.JWK()
		if err != nil {
			logx.L().Debug("could not generate JWK from key", "context", ctx, "alg", key.Alg.String(), "error", err)
			return nil, err
		}
		if _, ok := seen[jwk.Alg]; !ok {
			seen[jwk.Alg] = struct{}{}
			set.ValidMethods = append(set.ValidMethods, jwk.Alg)
		}
		set.Keys = append(set.Keys, jwk)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		logx.L().Debug("could not marshal JWKS", "context", ctx, "error", err)
		return nil, fmt.Errorf("%w: could not marshal JWKS", common.ErrInternal)
	}

	return []common.Artifact{{
		Kind:      common.ArtifactJWKS,
		MediaType: "application/jwk-set+json",
		Bytes:     data,
	}}, nil
}
