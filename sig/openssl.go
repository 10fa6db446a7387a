package sig

import (
	"bytes"
	"context"
	"crypto"
	"fmt"
	"os/exec"
	"strings"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/common/logx"
)

// OpenSSLSigner signs by piping the message through `openssl dgst -sign`.
// ECDSA output is DER, RSA output is the raw signature block.
type OpenSSLSigner struct {
	// Binary defaults to "openssl" looked up in PATH.
	Binary  string
	KeyFile string
}

var _ Signer = OpenSSLSigner{}

func (o OpenSSLSigner) Sign(ctx context.Context, message []byte, spec CryptoSpec) ([]byte, error) {
	args, err := o.args(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSigning, err)
	}
	bin := o.Binary
	if bin == "" {
		bin = "openssl"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(message)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logx.L().Debug("openssl dgst failed", "args", strings.Join(args, " "), "stderr", stderr.String(), "error", err)
		return nil, fmt.Errorf("%w: openssl %s: %w: %s", common.ErrSigning, spec.Name, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: openssl %s: empty signature", common.ErrSigning, spec.Name)
	}
	return stdout.Bytes(), nil
}

func (o OpenSSLSigner) args(spec CryptoSpec) ([]string, error) {
	if o.KeyFile == "" {
		return nil, fmt.Errorf("no key file configured")
	}
	md, err := opensslDigest(spec.Hash)
	if err != nil {
		return nil, err
	}
	args := []string{"dgst", "-" + md}
	if spec.IsPSS() {
		args = append(args,
			"-sigopt", "rsa_padding_mode:pss",
			"-sigopt", "rsa_pss_saltlen:digest",
			"-sigopt", "rsa_mgf1_md:"+md,
		)
	}
	return append(args, "-sign", o.KeyFile), nil
}

func opensslDigest(h crypto.Hash) (string, error) {
	switch h {
	case crypto.SHA256:
		return "sha256", nil
	case crypto.SHA384:
		return "sha384", nil
	case crypto.SHA512:
		return "sha512", nil
	default:
		return "", fmt.Errorf("%w: no openssl digest for %v", common.ErrUnsupportedAlgorithm, h)
	}
}
