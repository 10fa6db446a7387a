package common

import (
	"context"
)

type Kind string

const (
	JWT  Kind = "jwt"
	JWKS Kind = "jwks"
)

type IssueParams interface {
	Kind() Kind
}

type Issuer interface {
	Kind() Kind
	Issue(ctx context.Context, principal Principal, issueParams IssueParams) ([]Artifact, error)
}

type SubjectID string

// Principal is the subject a token is minted for.
type Principal struct {
	Subject    SubjectID
	Attributes map[string]any
}
