package common

import "fmt"

type ArtifactKind string

const (
	ArtifactUnknown      ArtifactKind = ""
	ArtifactCompactToken ArtifactKind = "compact_token"
	ArtifactHeaderJSON   ArtifactKind = "header_json"
	ArtifactPayloadJSON  ArtifactKind = "payload_json"
	ArtifactJWKS         ArtifactKind = "jwks"
)

type Artifact struct {
	Kind      ArtifactKind
	MediaType string // e.g. "application/jwt", "application/json"
	Bytes     []byte
	Metadata  map[string]any
}

func ArtifactWithKind(artifacts []Artifact, kind ArtifactKind) (Artifact, error) {
	for _, artifact := range artifacts {
		if artifact.Kind == kind {
			return artifact, nil
		}
	}
	return Artifact{}, fmt.Errorf("missing artifact %s", kind)
}
