package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/axent-pl/jwtmint/jwt"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <token|->",
	Short: "Decode a token without verifying it",
	Long:  `Inspect prints the header, the payload and the expiry of a compact token. Use - to read the token from stdin.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	compact := args[0]
	if compact == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		compact = string(data)
	}
	inspection, err := jwt.Inspect(compact)
	if err != nil {
		return err
	}
	return printInspection(cmd.OutOrStdout(), inspection)
}

func printInspection(w io.Writer, in jwt.Inspection) error {
	var header, payload bytes.Buffer
	if err := json.Indent(&header, in.HeaderJSON, "", "  "); err != nil {
		return err
	}
	if err := json.Indent(&payload, in.PayloadJSON, "", "  "); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nHeader:\n%s\n", header.String())
	fmt.Fprintf(&b, "\nPayload:\n%s\n", payload.String())
	if in.ExpiresAt != nil {
		fmt.Fprintf(&b, "\nExpires: %s (%d)\n", in.ExpiresAt.Local().Format("2006-01-02 15:04:05 MST"), in.ExpiresAt.Unix())
	}
	_, err := io.WriteString(w, b.String())
	return err
}
