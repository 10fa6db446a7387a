package jwt_test

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/axent-pl/jwtmint/b64url"
	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/jwt"
	"github.com/axent-pl/jwtmint/sig"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func clock() time.Time { return fixedNow }

// stubDER is a 70-byte DER ECDSA signature with 32-byte r and s.
func stubDER() []byte {
	out := []byte{0x30, 0x44, 0x02, 0x20}
	out = append(out, bytes.Repeat([]byte{0x5a}, 32)...)
	out = append(out, 0x02, 0x20)
	return append(out, bytes.Repeat([]byte{0x3c}, 32)...)
}

type recordingSigner struct {
	mu       sync.Mutex
	calls    int
	message  []byte
	spec     sig.CryptoSpec
	response []byte
	err      error
}

func (r *recordingSigner) Sign(_ context.Context, message []byte, spec sig.CryptoSpec) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.message = bytes.Clone(message)
	r.spec = spec
	return r.response, r.err
}

func segments(t *testing.T, compact string) []string {
	t.Helper()
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		t.Fatalf("token %q has %d segments, want 3", compact, len(parts))
	}
	return parts
}

func decodeSegment(t *testing.T, segment string) []byte {
	t.Helper()
	b, err := b64url.Decode(segment)
	if err != nil {
		t.Fatalf("segment %q: %v", segment, err)
	}
	return b
}

func TestBuilder_Build_ES256Stub(t *testing.T) {
	signer := &recordingSigner{response: stubDER()}
	builder := jwt.Builder{Signer: signer, Now: clock}

	compact, err := builder.Build(context.Background(), "ES256", "CRDP03", "user01", 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	parts := segments(t, compact)

	if got, want := string(decodeSegment(t, parts[0])), `{"alg":"ES256","typ":"JWT"}`; got != want {
		t.Errorf("header = %s, want %s", got, want)
	}
	if got, want := string(decodeSegment(t, parts[1])), `{"exp":1702592000,"iss":"CRDP03","sub":"user01"}`; got != want {
		t.Errorf("payload = %s, want %s", got, want)
	}

	signature := decodeSegment(t, parts[2])
	if len(signature) != 64 {
		t.Fatalf("signature length = %d, want 64", len(signature))
	}
	if !bytes.Equal(signature[:32], bytes.Repeat([]byte{0x5a}, 32)) || !bytes.Equal(signature[32:], bytes.Repeat([]byte{0x3c}, 32)) {
		t.Errorf("signature = %x, want r||s from stub", signature)
	}

	if signer.calls != 1 {
		t.Errorf("signer called %d times, want 1", signer.calls)
	}
	if got, want := string(signer.message), parts[0]+"."+parts[1]; got != want {
		t.Errorf("signing input = %q, want %q", got, want)
	}
	if signer.spec.Hash != crypto.SHA256 || signer.spec.Key != sig.KeyECDSA {
		t.Errorf("signer spec = %v/%v, want SHA-256/ECDSA", signer.spec.Hash, signer.spec.Key)
	}
}

func TestBuilder_Build_RSAPassThrough(t *testing.T) {
	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(i)
	}
	tests := []struct {
		name    string
		alg     string
		wantPSS bool
	}{
		{name: "RS256", alg: "RS256"},
		{name: "PS256", alg: "PS256", wantPSS: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := &recordingSigner{response: raw}
			compact, err := jwt.Builder{Signer: signer, Now: clock}.Build(context.Background(), tt.alg, "iss", "sub", time.Minute)
			if err != nil {
				t.Fatalf("Build() failed: %v", err)
			}
			parts := segments(t, compact)
			if got := decodeSegment(t, parts[2]); !bytes.Equal(got, raw) {
				t.Errorf("signature = %x, want unchanged %x", got, raw)
			}
			if signer.spec.IsPSS() != tt.wantPSS {
				t.Errorf("spec.IsPSS() = %v, want %v", signer.spec.IsPSS(), tt.wantPSS)
			}
		})
	}
}

func TestBuilder_Mint_ClaimTextNotEscaped(t *testing.T) {
	tests := []struct {
		name    string
		issuer  string
		subject string
		want    string
	}{
		{name: "ampersand", issuer: "a&b", subject: "user01", want: `{"exp":1702592000,"iss":"a&b","sub":"user01"}`},
		{name: "angle brackets", issuer: "CRDP03", subject: "<user>", want: `{"exp":1702592000,"iss":"CRDP03","sub":"<user>"}`},
		{name: "quote still escaped", issuer: `x"y`, subject: "user01", want: `{"exp":1702592000,"iss":"x\"y","sub":"user01"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.Builder{Signer: &recordingSigner{response: []byte{1}}, Now: clock}.Mint(context.Background(), "RS256", tt.issuer, tt.subject, 30*24*time.Hour)
			if err != nil {
				t.Fatalf("Mint() failed: %v", err)
			}
			if got := string(token.PayloadJSON); got != tt.want {
				t.Errorf("payload = %s, want %s", got, tt.want)
			}
			parts := segments(t, token.Compact)
			if got := string(decodeSegment(t, parts[1])); got != tt.want {
				t.Errorf("encoded payload = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuilder_Build_Errors(t *testing.T) {
	signErr := errors.New("hsm unavailable")
	tests := []struct {
		name       string
		alg        string
		signer     *recordingSigner
		now        func() time.Time
		exp        time.Duration
		wantErr    error
		wantCalled bool
	}{
		{name: "HS256 rejected", alg: "HS256", signer: &recordingSigner{}, wantErr: common.ErrUnsupportedAlgorithm},
		{name: "none rejected", alg: "none", signer: &recordingSigner{}, wantErr: common.ErrUnsupportedAlgorithm},
		{name: "lower case rejected", alg: "es256", signer: &recordingSigner{}, wantErr: common.ErrUnsupportedAlgorithm},
		{name: "empty rejected", alg: "", signer: &recordingSigner{}, wantErr: common.ErrUnsupportedAlgorithm},
		{name: "signer error propagated", alg: "RS256", signer: &recordingSigner{err: signErr}, wantErr: signErr, wantCalled: true},
		{name: "malformed DER", alg: "ES256", signer: &recordingSigner{response: []byte("not a der signature")}, wantErr: common.ErrInvalidSignatureFormat, wantCalled: true},
		{name: "curve mismatch", alg: "ES256", signer: &recordingSigner{response: p384DER()}, wantErr: common.ErrSignatureTooLarge, wantCalled: true},
		{name: "negative exp", alg: "ES256", signer: &recordingSigner{response: stubDER()}, now: func() time.Time { return time.Unix(10, 0) }, exp: -time.Hour, wantErr: common.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			if now == nil {
				now = clock
			}
			got, err := jwt.Builder{Signer: tt.signer, Now: now}.Build(context.Background(), tt.alg, "iss", "sub", tt.exp)
			if err == nil {
				t.Fatalf("Build() = %q, want error", got)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if called := tt.signer.calls > 0; called != tt.wantCalled {
				t.Errorf("signer called = %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func TestBuilder_Build_SignerErrorUnchanged(t *testing.T) {
	signErr := errors.New("key material unavailable")
	_, err := jwt.Builder{Signer: &recordingSigner{err: signErr}}.Build(context.Background(), "PS384", "iss", "sub", time.Minute)
	if err != signErr {
		t.Errorf("Build() error = %v, want the signer error itself", err)
	}
}

func p384DER() []byte {
	out := []byte{0x30, 0x64, 0x02, 0x30}
	out = append(out, bytes.Repeat([]byte{0x11}, 48)...)
	out = append(out, 0x02, 0x30)
	return append(out, bytes.Repeat([]byte{0x22}, 48)...)
}

func TestBuild_UsesWallClock(t *testing.T) {
	before := time.Now().Unix()
	compact, err := jwt.Build("ES256", "CRDP03", "user01", 30*24*time.Hour, &recordingSigner{response: stubDER()})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	after := time.Now().Unix()

	insp, err := jwt.Inspect(compact)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	exp, err := insp.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		t.Fatalf("exp missing: %v", err)
	}
	if got := exp.Unix(); got < before+2592000 || got > after+2592000 {
		t.Errorf("exp = %d, want within [%d, %d]", got, before+2592000, after+2592000)
	}
}

func TestBuilder_Mint_RealKeys(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	ecKeys := map[elliptic.Curve]*ecdsa.PrivateKey{}
	for _, c := range []elliptic.Curve{elliptic.P256(), elliptic.P384(), elliptic.P521()} {
		k, err := ecdsa.GenerateKey(c, rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		ecKeys[c] = k
	}

	for _, alg := range sig.All() {
		t.Run(alg.String(), func(t *testing.T) {
			spec, err := alg.ToCrypto()
			if err != nil {
				t.Fatal(err)
			}
			var key crypto.Signer = rsaKey
			if spec.Key == sig.KeyECDSA {
				key = ecKeys[spec.Curve]
			}

			token, err := jwt.Builder{Signer: sig.KeySigner{Key: key}, Now: clock}.Mint(context.Background(), alg.String(), "CRDP03", "user01", time.Hour)
			if err != nil {
				t.Fatalf("Mint() failed: %v", err)
			}
			if spec.Key == sig.KeyECDSA && len(token.Signature) != 2*spec.OutputWidth {
				t.Errorf("signature length = %d, want %d", len(token.Signature), 2*spec.OutputWidth)
			}
			if spec.Key.IsRSA() && len(token.Signature) != rsaKey.Size() {
				t.Errorf("signature length = %d, want %d", len(token.Signature), rsaKey.Size())
			}

			parts := segments(t, token.Compact)
			if err := spec.Method.Verify(parts[0]+"."+parts[1], decodeSegment(t, parts[2]), key.Public()); err != nil {
				t.Errorf("golang-jwt %s verify failed: %v", alg, err)
			}
		})
	}
}
