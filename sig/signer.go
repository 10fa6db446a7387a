package sig

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"

	"github.com/axent-pl/jwtmint/common"
)

// Signer produces a raw signature over message using the hash and key family
// in spec. ECDSA signers return the ASN.1 DER form SEQUENCE { r, s }; RSA
// signers return the fixed-width signature block.
type Signer interface {
	Sign(ctx context.Context, message []byte, spec CryptoSpec) ([]byte, error)
}

// SignerFunc adapts a plain function to Signer.
type SignerFunc func(ctx context.Context, message []byte, spec CryptoSpec) ([]byte, error)

func (f SignerFunc) Sign(ctx context.Context, message []byte, spec CryptoSpec) ([]byte, error) {
	return f(ctx, message, spec)
}

// KeySigner signs in-process with a crypto.Signer (an *rsa.PrivateKey,
// *ecdsa.PrivateKey, or an HSM/KMS handle exposing the same interface).
type KeySigner struct {
	Key crypto.Signer

	// Rand defaults to crypto/rand.Reader.
	Rand io.Reader
}

var _ Signer = KeySigner{}

func (ks KeySigner) Sign(_ context.Context, message []byte, spec CryptoSpec) ([]byte, error) {
	if ks.Key == nil {
		return nil, fmt.Errorf("%w: nil key", common.ErrSigning)
	}
	if err := CheckKey(ks.Key.Public(), spec); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSigning, err)
	}
	digest, err := Hash(message, spec.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSigning, err)
	}

	random := ks.Rand
	if random == nil {
		random = rand.Reader
	}

	var opts crypto.SignerOpts = spec.Hash
	if spec.IsPSS() {
		// JOSE requires salt length = hash size; MGF1 uses opts.Hash.
		opts = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: spec.Hash}
	}
	signature, err := ks.Key.Sign(random, digest, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrSigning, spec.Name, err)
	}
	return signature, nil
}

// CheckKey verifies that pub belongs to the key family spec signs with.
func CheckKey(pub crypto.PublicKey, spec CryptoSpec) error {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		if !spec.Key.IsRSA() {
			return fmt.Errorf("algorithm %s expects %v key, got RSA", spec.Name, spec.Key)
		}
		return nil
	case *ecdsa.PublicKey:
		if spec.Key != KeyECDSA {
			return fmt.Errorf("algorithm %s expects %v key, got ECDSA", spec.Name, spec.Key)
		}
		if spec.Curve != nil && k.Curve != spec.Curve {
			return fmt.Errorf("algorithm %s expects curve %s, got %s", spec.Name, spec.Curve.Params().Name, k.Curve.Params().Name)
		}
		return nil
	default:
		return fmt.Errorf("unsupported key type %T", pub)
	}
}
