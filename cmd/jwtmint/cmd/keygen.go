package cmd

import (
	"github.com/spf13/cobra"

	"github.com/axent-pl/jwtmint/keys"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the key pair for the configured algorithm",
	Long: `Keygen writes <key-dir>/<key-name-prefix>_private.pem and _public.pem.
With --use-existing-keys a stored key that fits the algorithm is kept.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	alg, err := cfg.SigAlg()
	if err != nil {
		return err
	}
	spec, err := alg.ToCrypto()
	if err != nil {
		return err
	}
	store := keys.Store{Dir: cfg.KeyDir, Prefix: cfg.KeyNamePrefix}
	key, generated, err := store.Provision(spec, cfg.UseExistingKeys)
	if err != nil {
		return err
	}
	reportKey(cmd, store, spec, generated)
	return publishKey(cmd.Context(), store, key, alg)
}
