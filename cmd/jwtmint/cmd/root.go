package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axent-pl/jwtmint/common/logx"
	"github.com/axent-pl/jwtmint/config"
)

var (
	cfgFile string
	v       *viper.Viper
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jwtmint",
	Short: "Mint signed JWTs from local or OpenSSL-held keys",
	Long: `jwtmint creates signed JSON Web Tokens (RS, PS and ES algorithms) carrying
iss, sub and exp claims. Keys are generated per algorithm or reused from the
key directory; ECDSA signatures are converted to the JOSE form.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	v = config.InitViper()
	config.BindFlags(rootCmd, v)
}

func initConfig() {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg = config.Config{}
	if err := config.Load(v, &cfg); err != nil {
		return err
	}
	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	logx.SetLogger(logx.NewText(cmd.ErrOrStderr(), level))
	return nil
}
