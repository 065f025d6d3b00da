package main

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new empty vault",
	Long: `Init creates the vault file and derives its master key from a password
you choose. The password is never stored; losing it means losing every secret
in the vault.`,
	Example: `  coldvault init
  coldvault init --vault /backup-drive/vault.cv`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	password, err := promptNewPassword("Choose a master password: ")
	if err != nil {
		return err
	}

	sess, err := vaultClient.Init(password)
	if err != nil {
		return err
	}
	defer sess.Lock()

	if jsonOutput {
		printJSON(map[string]interface{}{
			"created": true,
			"path":    vaultClient.Store.Path(),
		})
		return nil
	}
	printSuccess("Vault created at %s", vaultClient.Store.Path())
	printInfo("Add your first entry with: coldvault add")
	return nil
}
