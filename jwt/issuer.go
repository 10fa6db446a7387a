package jwt

import (
	"context"
	"time"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/common/logx"
	"github.com/axent-pl/jwtmint/sig"
)

// -- issue params
type IssueParams struct {
	Alg    string
	Issuer string
	Exp    time.Duration
	Signer sig.Signer
}

func (IssueParams) Kind() common.Kind { return common.JWT }

// issuer
type TokenIssuer struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

var _ common.Issuer = &TokenIssuer{}

func (TokenIssuer) Kind() common.Kind { return common.JWT }

// Issue mints a token for principal and returns the compact token together
// with its decoded header and payload.
func (iss *TokenIssuer) Issue(ctx context.Context, principal common.Principal, issueParams common.IssueParams) ([]common.Artifact, error) {
	params, ok := issueParams.(IssueParams)
	if !ok {
		logx.L().Debug("could not cast IssueParams to jwt.IssueParams", "context", ctx)
		return nil, common.ErrInternal
	}

	builder := Builder{Signer: params.Signer, Now: iss.Now}
	token, err := builder.Mint(ctx, params.Alg, params.Issuer, string(principal.Subject), params.Exp)
	if err != nil {
		logx.L().Debug("could not mint token", "context", ctx, "alg", params.Alg, "error", err)
		return nil, err
	}

	metadata := map[string]any{
		"alg": token.Alg.String(),
		"exp": token.Payload.Exp,
		"sub": token.Payload.Sub,
	}
	artifacts := []common.Artifact{
		{
			Kind:      common.ArtifactCompactToken,
			MediaType: "application/jwt",
			Bytes:     []byte(token.Compact),
			Metadata:  metadata,
		},
		{
			Kind:      common.ArtifactHeaderJSON,
			MediaType: "application/json",
			Bytes:     token.HeaderJSON,
		},
		{
			Kind:      common.ArtifactPayloadJSON,
			MediaType: "application/json",
			Bytes:     token.PayloadJSON,
		},
	}
	return artifacts, nil
}
