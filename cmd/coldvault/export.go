package main

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Write an encrypted backup of the vault",
	Long: `Export writes a full copy of the vault to an external path, re-sealed
under a backup password you choose (it may differ from the master password).
The backup uses the same container format and is portable across machines.`,
	Example: `  coldvault export /backup-drive/vault-backup.cv`,
	Args:    cobra.ExactArgs(1),
	RunE:    runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	path := trimQuotes(args[0])

	password, err := masterPassword()
	if err != nil {
		return err
	}

	sess, err := vaultClient.Open(password)
	if err != nil {
		return err
	}
	defer sess.Lock()

	backupPassword, err := promptNewPassword("Backup password: ")
	if err != nil {
		return err
	}

	if err := sess.Export(path, backupPassword); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"exported": true,
			"path":     path,
			"entries":  sess.Len(),
		})
		return nil
	}
	printSuccess("Backup with %d entries exported to %s", sess.Len(), path)
	return nil
}
