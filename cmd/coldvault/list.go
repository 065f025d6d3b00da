package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List vault entries",
	Long: `List shows every entry's label, kind and timestamps. Secrets are never
printed. An optional query filters entries by label or notes. With --json the
output is machine-readable for scripted use.`,
	Example: `  coldvault list
  coldvault list btc
  coldvault list --json | jq -r '.[].label'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	password, err := masterPassword()
	if err != nil {
		return err
	}

	sess, err := vaultClient.Open(password)
	if err != nil {
		return err
	}
	defer sess.Lock()

	infos, err := sess.List()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		infos, err = sess.Search(args[0])
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		printJSON(infos)
		return nil
	}
	if len(infos) == 0 {
		printInfo("Vault is empty. Add an entry with: coldvault add")
		return nil
	}
	printEntryTable(infos)
	return nil
}
