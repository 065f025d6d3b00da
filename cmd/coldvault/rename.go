package main

import (
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:     "rename <label-or-id> <new-label>",
	Short:   "Rename an entry",
	Example: `  coldvault rename "BTC cold key" "BTC cold key (ledger)"`,
	Args:    cobra.ExactArgs(2),
	RunE:    runRename,
}

func init() {
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	password, err := masterPassword()
	if err != nil {
		return err
	}

	sess, err := vaultClient.Open(password)
	if err != nil {
		return err
	}
	defer sess.Lock()

	info, err := sess.Rename(args[0], args[1])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}
	printSuccess("Entry renamed to %q", info.Label)
	return nil
}
