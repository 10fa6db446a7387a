package cmd

import (
	"context"
	"crypto"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/common/logx"
	"github.com/axent-pl/jwtmint/config"
	"github.com/axent-pl/jwtmint/jwks"
	"github.com/axent-pl/jwtmint/jwt"
	"github.com/axent-pl/jwtmint/keys"
	"github.com/axent-pl/jwtmint/metrics"
	"github.com/axent-pl/jwtmint/sig"
	"github.com/axent-pl/jwtmint/storage"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Mint a signed token",
	Long: `Create provisions the key pair for the configured algorithm, signs a token
for the configured user and writes it to the output file (and the S3 bucket
when enabled). The token and its decoded header and payload are printed.`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	alg, err := cfg.SigAlg()
	if err != nil {
		return err
	}
	spec, err := alg.ToCrypto()
	if err != nil {
		return err
	}

	m := metrics.New()
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := m.WriteTextfile(cfg.MetricsFile); werr != nil {
				logx.L().Warn("could not write metrics", "path", cfg.MetricsFile, "error", werr)
			}
		}()
	}

	store := keys.Store{Dir: cfg.KeyDir, Prefix: cfg.KeyNamePrefix}
	key, generated, err := store.Provision(spec, cfg.UseExistingKeys)
	if err != nil {
		return err
	}
	reportKey(cmd, store, spec, generated)
	if err := publishKey(ctx, store, key, alg); err != nil {
		return err
	}

	issuer := jwt.TokenIssuer{}
	artifacts, err := issuer.Issue(ctx, common.Principal{Subject: common.SubjectID(cfg.UserID)}, jwt.IssueParams{
		Alg:    alg.String(),
		Issuer: cfg.Issuer,
		Exp:    cfg.Lifetime(),
		Signer: m.Instrument(newSigner(key, store)),
	})
	if err != nil {
		return err
	}
	m.TokenIssued(alg)

	token, err := common.ArtifactWithKind(artifacts, common.ArtifactCompactToken)
	if err != nil {
		return err
	}
	sinks, err := newSinks(ctx)
	if err != nil {
		return err
	}
	if err := sinks.Put(ctx, tokenName(), token); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Output.File != "" {
		fmt.Fprintf(out, "Token written to %s\n", cfg.Output.File)
	}
	fmt.Fprintf(out, "\n%s\n", token.Bytes)

	inspection, err := jwt.Inspect(string(token.Bytes))
	if err != nil {
		return err
	}
	return printInspection(out, inspection)
}

func newSigner(key crypto.Signer, store keys.Store) sig.Signer {
	if cfg.Signer == config.SignerOpenSSL {
		return sig.OpenSSLSigner{Binary: cfg.OpenSSLPath, KeyFile: store.PrivatePath()}
	}
	return sig.KeySigner{Key: key}
}

func newSinks(ctx context.Context) (storage.Multi, error) {
	var sinks storage.Multi
	if cfg.Output.File != "" {
		sinks = append(sinks, storage.FileSink{Dir: filepath.Dir(cfg.Output.File)})
	}
	if cfg.Output.S3.Enabled {
		s3Sink, err := storage.NewS3Sink(ctx, cfg.Output.S3.Storage())
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3Sink)
	}
	return sinks, nil
}

// publishKey writes the public key as a JWK Set next to the PEM files.
func publishKey(ctx context.Context, store keys.Store, key crypto.Signer, alg sig.SigAlg) error {
	artifacts, err := jwks.Issuer{}.Issue(ctx, common.Principal{Subject: common.SubjectID(cfg.Issuer)}, jwks.IssueParams{
		Keys: []jwks.Key{{Public: key.Public(), Alg: alg}},
	})
	if err != nil {
		return err
	}
	set, err := common.ArtifactWithKind(artifacts, common.ArtifactJWKS)
	if err != nil {
		return err
	}
	return storage.FileSink{Dir: store.Dir}.Put(ctx, filepath.Base(store.JWKSPath()), set)
}

// tokenName is the file name of the output file, also used as the object key.
func tokenName() string {
	if cfg.Output.File == "" {
		return "jwt_token.txt"
	}
	return filepath.Base(cfg.Output.File)
}

func reportKey(cmd *cobra.Command, store keys.Store, spec sig.CryptoSpec, generated bool) {
	out := cmd.OutOrStdout()
	if !generated {
		fmt.Fprintf(out, "Using existing key %s\n", store.PrivatePath())
		return
	}
	if spec.Key.IsRSA() {
		fmt.Fprintf(out, "Generated %d-bit RSA key for %s\n", spec.KeyBits, spec.Name)
	} else {
		fmt.Fprintf(out, "Generated EC key on %s for %s\n", spec.CurveName, spec.Name)
	}
	fmt.Fprintf(out, "Private key: %s\nPublic key: %s\nJWK Set: %s\n", store.PrivatePath(), store.PublicPath(), store.JWKSPath())
}
