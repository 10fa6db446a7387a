// Package keys provisions the private/public key pair a token is signed
// with: generation sized by the algorithm policy, PEM persistence and reuse.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/common/logx"
	"github.com/axent-pl/jwtmint/sig"
)

// Generate creates a key for spec: an RSA key of spec.KeyBits for RS/PS
// algorithms, an ECDSA key on spec.Curve for ES algorithms.
func Generate(spec sig.CryptoSpec) (crypto.Signer, error) {
	switch spec.Key {
	case sig.KeyRSA, sig.KeyRSAPSS:
		if spec.KeyBits == 0 {
			return nil, fmt.Errorf("%w: no key size for %s", common.ErrInvalidInput, spec.Name)
		}
		key, err := rsa.GenerateKey(rand.Reader, spec.KeyBits)
		if err != nil {
			return nil, err
		}
		return key, nil
	case sig.KeyECDSA:
		if spec.Curve == nil {
			return nil, fmt.Errorf("%w: no curve for %s", common.ErrInvalidInput, spec.Name)
		}
		key, err := ecdsa.GenerateKey(spec.Curve, rand.Reader)
		if err != nil {
			return nil, err
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedAlgorithm, spec.Name)
	}
}

// Store keeps a key pair as <Dir>/<Prefix>_private.pem and <Dir>/<Prefix>_public.pem.
type Store struct {
	Dir    string
	Prefix string
}

func (s Store) PrivatePath() string {
	return filepath.Join(s.Dir, s.Prefix+"_private.pem")
}

func (s Store) PublicPath() string {
	return filepath.Join(s.Dir, s.Prefix+"_public.pem")
}

// JWKSPath is where the public key is published as a JWK Set.
func (s Store) JWKSPath() string {
	return filepath.Join(s.Dir, s.Prefix+"_jwks.json")
}

// Exists reports whether the private key file is present.
func (s Store) Exists() bool {
	_, err := os.Stat(s.PrivatePath())
	return err == nil
}

// Save writes the private key as PKCS#8 and its public key as PKIX.
func (s Store) Save(key crypto.Signer) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("could not create key dir: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("could not marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(key.Public())
	if err != nil {
		return fmt.Errorf("could not marshal public key: %w", err)
	}
	if err := os.WriteFile(s.PrivatePath(), pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600); err != nil {
		return fmt.Errorf("could not write private key: %w", err)
	}
	if err := os.WriteFile(s.PublicPath(), pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644); err != nil {
		return fmt.Errorf("could not write public key: %w", err)
	}
	return nil
}

// Load reads the private key file.
func (s Store) Load() (crypto.Signer, error) {
	data, err := os.ReadFile(s.PrivatePath())
	if err != nil {
		return nil, fmt.Errorf("could not read private key: %w", err)
	}
	return ParsePrivateKeyPEM(data)
}

// Provision returns the stored key when reuse is requested and one exists,
// otherwise generates and stores a new one. The key must fit spec.
func (s Store) Provision(spec sig.CryptoSpec, useExisting bool) (key crypto.Signer, generated bool, err error) {
	if useExisting {
		key, err = s.Load()
		switch {
		case err == nil:
			if err := sig.CheckKey(key.Public(), spec); err != nil {
				return nil, false, fmt.Errorf("%w: existing key %s: %w", common.ErrInvalidInput, s.PrivatePath(), err)
			}
			logx.L().Debug("using existing key", "path", s.PrivatePath())
			return key, false, nil
		case errors.Is(err, fs.ErrNotExist):
			logx.L().Debug("no existing key, generating", "path", s.PrivatePath())
		default:
			return nil, false, err
		}
	}

	key, err = Generate(spec)
	if err != nil {
		return nil, false, err
	}
	if err := s.Save(key); err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// ParsePrivateKeyPEM accepts PKCS#8 ("PRIVATE KEY"), PKCS#1 ("RSA PRIVATE KEY")
// and SEC 1 ("EC PRIVATE KEY") blocks, as written by openssl genrsa/ecparam.
func ParsePrivateKeyPEM(data []byte) (crypto.Signer, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: no private key PEM block", common.ErrInvalidInput)
		}

		switch block.Type {
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
			}
			signer, ok := key.(crypto.Signer)
			if !ok {
				return nil, fmt.Errorf("%w: unsupported key type %T", common.ErrInvalidInput, key)
			}
			return signer, nil
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
			}
			return key, nil
		case "EC PRIVATE KEY":
			key, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
			}
			return key, nil
		}
		// "EC PARAMETERS" precedes the key in `openssl ecparam -genkey` output
	}
}
