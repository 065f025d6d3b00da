package main

import (
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Merge entries from an encrypted backup",
	Long: `Import decrypts a backup and merges its entries into the vault,
matching by entry id. By default existing entries win: a conflicting id is
kept as-is and reported. With --overwrite the backup version replaces the
live one instead.`,
	Example: `  coldvault import /backup-drive/vault-backup.cv
  coldvault import old-vault.cv --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importOverwrite bool

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false,
		"Replace existing entries when the backup has the same id")
}

func runImport(cmd *cobra.Command, args []string) error {
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

	backupPassword, err := promptPassword("Backup password: ")
	if err != nil {
		return err
	}

	report, err := sess.Import(path, backupPassword, importOverwrite)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(report)
		return nil
	}
	printSuccess("%d imported, %d replaced", report.Imported, report.Replaced)
	for _, label := range report.Conflicts {
		printWarning("Conflict: kept existing entry %q (use --overwrite to replace)", label)
	}
	return nil
}
