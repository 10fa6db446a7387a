package sig_test

import (
	"crypto"
	"errors"
	"testing"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/sig"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantHash  crypto.Hash
		wantKey   sig.KeyKind
		wantWidth int
		wantBits  int
		wantCurve string
		wantErr   bool
	}{
		{name: "RS256", in: "RS256", wantHash: crypto.SHA256, wantKey: sig.KeyRSA, wantBits: 2048},
		{name: "RS384", in: "RS384", wantHash: crypto.SHA384, wantKey: sig.KeyRSA, wantBits: 3072},
		{name: "RS512", in: "RS512", wantHash: crypto.SHA512, wantKey: sig.KeyRSA, wantBits: 4096},
		{name: "PS256", in: "PS256", wantHash: crypto.SHA256, wantKey: sig.KeyRSAPSS, wantBits: 2048},
		{name: "PS384", in: "PS384", wantHash: crypto.SHA384, wantKey: sig.KeyRSAPSS, wantBits: 3072},
		{name: "PS512", in: "PS512", wantHash: crypto.SHA512, wantKey: sig.KeyRSAPSS, wantBits: 4096},
		{name: "ES256", in: "ES256", wantHash: crypto.SHA256, wantKey: sig.KeyECDSA, wantWidth: 32, wantCurve: "prime256v1"},
		{name: "ES384", in: "ES384", wantHash: crypto.SHA384, wantKey: sig.KeyECDSA, wantWidth: 48, wantCurve: "secp384r1"},
		{name: "ES512", in: "ES512", wantHash: crypto.SHA512, wantKey: sig.KeyECDSA, wantWidth: 66, wantCurve: "secp521r1"},
		{name: "HMAC", in: "HS256", wantErr: true},
		{name: "EdDSA", in: "EdDSA", wantErr: true},
		{name: "RS1", in: "RS1", wantErr: true},
		{name: "lower case", in: "rs256", wantErr: true},
		{name: "padded", in: " RS256", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, gotErr := sig.Parse(tt.in)
			if gotErr != nil {
				if !tt.wantErr {
					t.Errorf("Parse() failed: %v", gotErr)
				}
				if !errors.Is(gotErr, common.ErrUnsupportedAlgorithm) {
					t.Errorf("Parse() error = %v, want ErrUnsupportedAlgorithm", gotErr)
				}
				return
			}
			if tt.wantErr {
				t.Fatal("Parse() succeeded unexpectedly")
			}
			if alg.String() != tt.in {
				t.Errorf("String() = %q, want %q", alg.String(), tt.in)
			}
			spec, err := alg.ToCrypto()
			if err != nil {
				t.Fatalf("ToCrypto() failed: %v", err)
			}
			if spec.Hash != tt.wantHash || spec.Key != tt.wantKey {
				t.Errorf("ToCrypto() = %v/%v, want %v/%v", spec.Hash, spec.Key, tt.wantHash, tt.wantKey)
			}
			if spec.KeyBits != tt.wantBits || spec.CurveName != tt.wantCurve {
				t.Errorf("ToCrypto() sizing = %d/%q, want %d/%q", spec.KeyBits, spec.CurveName, tt.wantBits, tt.wantCurve)
			}

			width, err := alg.OutputWidth()
			if tt.wantWidth == 0 {
				if !errors.Is(err, common.ErrUnsupportedAlgorithm) {
					t.Errorf("OutputWidth() error = %v, want ErrUnsupportedAlgorithm", err)
				}
			} else if err != nil || width != tt.wantWidth {
				t.Errorf("OutputWidth() = %d, %v, want %d", width, err, tt.wantWidth)
			}

			method, err := alg.ToGoJWT()
			if err != nil {
				t.Fatalf("ToGoJWT() failed: %v", err)
			}
			if method.Alg() != tt.in {
				t.Errorf("ToGoJWT().Alg() = %q, want %q", method.Alg(), tt.in)
			}
			back, err := sig.FromGoJWT(method)
			if err != nil || back != alg {
				t.Errorf("FromGoJWT() = %v, %v, want %v", back, err, alg)
			}
		})
	}
}

func TestSigAlgUnknown(t *testing.T) {
	if _, err := sig.SigAlgUnknown.ToCrypto(); !errors.Is(err, common.ErrUnsupportedAlgorithm) {
		t.Errorf("ToCrypto() error = %v, want ErrUnsupportedAlgorithm", err)
	}
	if _, err := sig.SigAlgUnknown.OutputWidth(); !errors.Is(err, common.ErrUnsupportedAlgorithm) {
		t.Errorf("OutputWidth() error = %v, want ErrUnsupportedAlgorithm", err)
	}
	if got := sig.SigAlgUnknown.String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
	if _, err := sig.FromGoJWT(nil); !errors.Is(err, common.ErrUnsupportedAlgorithm) {
		t.Errorf("FromGoJWT(nil) error = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestAll(t *testing.T) {
	seen := map[string]bool{}
	for _, alg := range sig.All() {
		spec, err := alg.ToCrypto()
		if err != nil {
			t.Fatalf("ToCrypto(%v) failed: %v", alg, err)
		}
		if seen[spec.Name] {
			t.Errorf("duplicate algorithm %s", spec.Name)
		}
		seen[spec.Name] = true
	}
	if len(seen) != 9 {
		t.Errorf("All() has %d algorithms, want 9", len(seen))
	}
}

func TestHash(t *testing.T) {
	digest, err := sig.Hash([]byte("abc"), crypto.SHA256)
	if err != nil {
		t.Fatal(err)
	}
	if len(digest) != 32 {
		t.Errorf("Hash() length = %d, want 32", len(digest))
	}
	if _, err := sig.Hash([]byte("abc"), crypto.Hash(0)); !errors.Is(err, common.ErrUnsupportedAlgorithm) {
		t.Errorf("Hash(0) error = %v, want ErrUnsupportedAlgorithm", err)
	}
}
