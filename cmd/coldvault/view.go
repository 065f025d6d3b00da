package main

import (
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <label-or-id>",
	Short: "Show one entry",
	Long: `View prints an entry's details. The secret itself is shown only with
--show-secret; prefer "coldvault copy" which avoids printing it at all.`,
	Example: `  coldvault view "BTC cold key"
  coldvault view "BTC cold key" --show-secret --json`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

var viewShowSecret bool

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().BoolVar(&viewShowSecret, "show-secret", false,
		"Include the decrypted secret in the output")
}

func runView(cmd *cobra.Command, args []string) error {
	password, err := masterPassword()
	if err != nil {
		return err
	}

	sess, err := vaultClient.Open(password)
	if err != nil {
		return err
	}
	defer sess.Lock()

	info, secret, err := sess.Get(args[0])
	if err != nil {
		return err
	}
	defer secret.Wipe()

	var secretText string
	if viewShowSecret {
		secretText, err = secret.String()
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		out := map[string]interface{}{
			"id":         info.ID,
			"label":      info.Label,
			"kind":       info.Kind,
			"metadata":   info.Metadata,
			"created_at": info.CreatedAt,
			"updated_at": info.UpdatedAt,
		}
		if viewShowSecret {
			out["secret"] = secretText
		}
		printJSON(out)
		return nil
	}
	printEntryDetail(info, secretText)
	return nil
}
