package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axent-pl/jwtmint/common"
	"github.com/axent-pl/jwtmint/sig"
	"github.com/axent-pl/jwtmint/storage"
)

const (
	SignerNative  = "native"
	SignerOpenSSL = "openssl"
)

const day = 24 * time.Hour

// MaxExpiryDays is the longest lifetime a time.Duration can hold.
const MaxExpiryDays = math.MaxInt64 / int64(day)

// Config holds the token and key settings of a run
type Config struct {
	Algorithm       string       `mapstructure:"algorithm"`
	Issuer          string       `mapstructure:"issuer"`
	UserID          string       `mapstructure:"user_id"`
	ExpiryDays      int          `mapstructure:"expiry_days"`
	KeyDir          string       `mapstructure:"key_dir"`
	KeyNamePrefix   string       `mapstructure:"key_name_prefix"`
	UseExistingKeys bool         `mapstructure:"use_existing_keys"`
	Signer          string       `mapstructure:"signer"`
	OpenSSLPath     string       `mapstructure:"openssl_path"`
	MetricsFile     string       `mapstructure:"metrics_file"`
	LogLevel        string       `mapstructure:"log_level"`
	Output          OutputConfig `mapstructure:"output"`
}

// OutputConfig says where the compact token is written
type OutputConfig struct {
	File string   `mapstructure:"file"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible object storage configuration
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	BucketHost      string `mapstructure:"bucket_host"`
	BucketPort      int    `mapstructure:"bucket_port"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Prefix          string `mapstructure:"prefix"`
}

func (c S3Config) Storage() storage.S3Config {
	return storage.S3Config{
		BucketHost:      c.BucketHost,
		BucketPort:      c.BucketPort,
		BucketName:      c.BucketName,
		UseSSL:          c.UseSSL,
		Region:          c.Region,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Prefix:          c.Prefix,
	}
}

// SigAlg resolves the configured algorithm name
func (c Config) SigAlg() (sig.SigAlg, error) {
	return sig.Parse(c.Algorithm)
}

// Lifetime is expiry_days as a duration; call Validate first.
func (c Config) Lifetime() time.Duration {
	return time.Duration(c.ExpiryDays) * day
}

// Validate reports the first setting that cannot be used
func (c Config) Validate() error {
	if _, err := c.SigAlg(); err != nil {
		return err
	}
	if c.ExpiryDays < 0 {
		return fmt.Errorf("%w: expiry_days must not be negative, got %d", common.ErrInvalidInput, c.ExpiryDays)
	}
	if int64(c.ExpiryDays) > MaxExpiryDays {
		return fmt.Errorf("%w: expiry_days must be at most %d, got %d", common.ErrInvalidInput, MaxExpiryDays, c.ExpiryDays)
	}
	switch c.Signer {
	case SignerNative, SignerOpenSSL:
	default:
		return fmt.Errorf("%w: unknown signer %q", common.ErrInvalidInput, c.Signer)
	}
	if c.Output.S3.Enabled && c.Output.S3.BucketName == "" {
		return fmt.Errorf("%w: output.s3.bucket_name is required", common.ErrInvalidInput)
	}
	return nil
}

// InitViper initializes Viper with the config file search paths, env
// binding and defaults
func InitViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/jwtmint/")

	v.SetEnvPrefix("JWTMINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("algorithm", "ES256")
	v.SetDefault("issuer", "CRDP03")
	v.SetDefault("user_id", "user01")
	v.SetDefault("expiry_days", 30)
	v.SetDefault("key_dir", "./keys")
	v.SetDefault("key_name_prefix", "jwt_key")
	v.SetDefault("use_existing_keys", false)

	v.SetDefault("signer", SignerNative)
	v.SetDefault("openssl_path", "openssl")
	v.SetDefault("metrics_file", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("output.file", "keys/jwt_token.txt")
	v.SetDefault("output.s3.enabled", false)
	v.SetDefault("output.s3.bucket_host", "localhost")
	v.SetDefault("output.s3.bucket_port", 9000)
	v.SetDefault("output.s3.bucket_name", "")
	v.SetDefault("output.s3.use_ssl", false)
	v.SetDefault("output.s3.region", "us-east-1")
	v.SetDefault("output.s3.access_key_id", "")
	v.SetDefault("output.s3.secret_access_key", "")
	v.SetDefault("output.s3.prefix", "")
}

// Load reads the configuration from file and environment
func Load(v *viper.Viper, cfg *Config) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// BindFlags binds the CLI flags to Viper
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringP("algorithm", "a", "ES256", "Signing algorithm (RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512)")
	flags.String("issuer", "CRDP03", "Value of the iss claim")
	flags.String("user-id", "user01", "Value of the sub claim")
	flags.Int("expiry-days", 30, "Token lifetime in days")
	flags.String("key-dir", "./keys", "Directory holding the key pair")
	flags.String("key-name-prefix", "jwt_key", "File name prefix of the key pair")
	flags.Bool("use-existing-keys", false, "Reuse the stored key pair when present")
	flags.String("signer", SignerNative, "Signing backend (native, openssl)")
	flags.String("metrics-file", "", "Write Prometheus metrics to this textfile")

	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("algorithm", flags.Lookup("algorithm"))
	v.BindPFlag("issuer", flags.Lookup("issuer"))
	v.BindPFlag("user_id", flags.Lookup("user-id"))
	v.BindPFlag("expiry_days", flags.Lookup("expiry-days"))
	v.BindPFlag("key_dir", flags.Lookup("key-dir"))
	v.BindPFlag("key_name_prefix", flags.Lookup("key-name-prefix"))
	v.BindPFlag("use_existing_keys", flags.Lookup("use-existing-keys"))
	v.BindPFlag("signer", flags.Lookup("signer"))
	v.BindPFlag("metrics_file", flags.Lookup("metrics-file"))
}
