package sig

import (
	"crypto"
	"crypto/elliptic"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"

	"github.com/axent-pl/jwtmint/common"
	"github.com/golang-jwt/jwt/v5"
)

// SigAlg represents one of the asymmetric JWS algorithms a token can be minted with.
type SigAlg int

const (
	SigAlgUnknown SigAlg = iota

	// RSA PKCS#1 v1.5
	SigAlgRS256
	SigAlgRS384
	SigAlgRS512

	// ECDSA over P-256/384/512 (aka P-521) with SHA-2
	SigAlgES256
	SigAlgES384
	SigAlgES512

	// RSA-PSS
	SigAlgPS256
	SigAlgPS384
	SigAlgPS512
)

// ---------- key families ----------

type KeyKind int

const (
	KeyUnknown KeyKind = iota
	KeyRSA
	KeyRSAPSS
	KeyECDSA
)

func (k KeyKind) String() string {
	switch k {
	case KeyRSA:
		return "RSA"
	case KeyRSAPSS:
		return "RSA-PSS"
	case KeyECDSA:
		return "ECDSA"
	default:
		return "unknown"
	}
}

// IsRSA reports whether the family signs with an RSA key, with either padding.
func (k KeyKind) IsRSA() bool { return k == KeyRSA || k == KeyRSAPSS }

// CryptoSpec is the policy for one algorithm.
type CryptoSpec struct {
	Name string
	Hash crypto.Hash
	Key  KeyKind

	// ECDSA only: byte width of r and s in the JOSE signature, and the curve.
	OutputWidth int
	Curve       elliptic.Curve
	CurveName   string // OpenSSL name

	// RSA only: modulus size used when generating a key.
	KeyBits int

	Method jwt.SigningMethod
}

// IsPSS reports whether RSA signatures must use PSS padding.
func (cs CryptoSpec) IsPSS() bool { return cs.Key == KeyRSAPSS }

var policies = map[SigAlg]CryptoSpec{
	SigAlgRS256: {Name: "RS256", Hash: crypto.SHA256, Key: KeyRSA, KeyBits: 2048, Method: jwt.SigningMethodRS256},
	SigAlgRS384: {Name: "RS384", Hash: crypto.SHA384, Key: KeyRSA, KeyBits: 3072, Method: jwt.SigningMethodRS384},
	SigAlgRS512: {Name: "RS512", Hash: crypto.SHA512, Key: KeyRSA, KeyBits: 4096, Method: jwt.SigningMethodRS512},
	SigAlgPS256: {Name: "PS256", Hash: crypto.SHA256, Key: KeyRSAPSS, KeyBits: 2048, Method: jwt.SigningMethodPS256},
	SigAlgPS384: {Name: "PS384", Hash: crypto.SHA384, Key: KeyRSAPSS, KeyBits: 3072, Method: jwt.SigningMethodPS384},
	SigAlgPS512: {Name: "PS512", Hash: crypto.SHA512, Key: KeyRSAPSS, KeyBits: 4096, Method: jwt.SigningMethodPS512},
	SigAlgES256: {Name: "ES256", Hash: crypto.SHA256, Key: KeyECDSA, OutputWidth: 32, Curve: elliptic.P256(), CurveName: "prime256v1", Method: jwt.SigningMethodES256},
	SigAlgES384: {Name: "ES384", Hash: crypto.SHA384, Key: KeyECDSA, OutputWidth: 48, Curve: elliptic.P384(), CurveName: "secp384r1", Method: jwt.SigningMethodES384},
	SigAlgES512: {Name: "ES512", Hash: crypto.SHA512, Key: KeyECDSA, OutputWidth: 66, Curve: elliptic.P521(), CurveName: "secp521r1", Method: jwt.SigningMethodES512},
}

var byName = func() map[string]SigAlg {
	m := make(map[string]SigAlg, len(policies))
	for alg, spec := range policies {
		m[spec.Name] = alg
	}
	return m
}()

// All returns the supported algorithms in declaration order.
func All() []SigAlg {
	return []SigAlg{
		SigAlgRS256, SigAlgRS384, SigAlgRS512,
		SigAlgES256, SigAlgES384, SigAlgES512,
		SigAlgPS256, SigAlgPS384, SigAlgPS512,
	}
}

func (sa SigAlg) String() string {
	if spec, ok := policies[sa]; ok {
		return spec.Name
	}
	return "unknown"
}

// Parse resolves a JWS "alg" name. Names are case-sensitive.
func Parse(name string) (SigAlg, error) {
	if alg, ok := byName[name]; ok {
		return alg, nil
	}
	return SigAlgUnknown, fmt.Errorf("%w: %q", common.ErrUnsupportedAlgorithm, name)
}

// ToCrypto returns the hash, key family and sizing policy of the algorithm.
func (sa SigAlg) ToCrypto() (CryptoSpec, error) {
	if spec, ok := policies[sa]; ok {
		return spec, nil
	}
	return CryptoSpec{}, fmt.Errorf("%w: no crypto mapping for %v", common.ErrUnsupportedAlgorithm, sa)
}

// OutputWidth returns the fixed byte width of r and s for ECDSA algorithms.
func (sa SigAlg) OutputWidth() (int, error) {
	spec, err := sa.ToCrypto()
	if err != nil {
		return 0, err
	}
	if spec.Key != KeyECDSA {
		return 0, fmt.Errorf("%w: %v is not an ECDSA algorithm", common.ErrUnsupportedAlgorithm, sa)
	}
	return spec.OutputWidth, nil
}

// ---------- JWT package ---
func (sa SigAlg) ToGoJWT() (jwt.SigningMethod, error) {
	spec, err := sa.ToCrypto()
	if err != nil {
		return nil, err
	}
	return spec.Method, nil
}

// FromGoJWT maps a golang-jwt signing method back to SigAlg.
func FromGoJWT(method jwt.SigningMethod) (SigAlg, error) {
	if method == nil {
		return SigAlgUnknown, fmt.Errorf("%w: nil signing method", common.ErrUnsupportedAlgorithm)
	}
	return Parse(method.Alg())
}
