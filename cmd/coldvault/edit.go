package main

import (
	"github.com/spf13/cobra"

	"github.com/coldvault/coldvault/internal/models"
)

var editCmd = &cobra.Command{
	Use:   "edit <label-or-id>",
	Short: "Edit an entry",
	Long: `Edit updates an entry's secret, kind or notes. The entry is re-sealed
with a fresh nonce and the vault written through immediately. Flags not given
leave the corresponding field unchanged.`,
	Example: `  coldvault edit "BTC cold key" --notes "ledger backup, drawer 3"
  coldvault edit "BTC cold key" --secret`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editSecret bool
	editKind   string
	editNotes  string
)

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().BoolVar(&editSecret, "secret", false,
		"Prompt for a replacement secret")
	editCmd.Flags().StringVarP(&editKind, "kind", "k", "",
		"New entry kind: private-key, seed-phrase or other")
	editCmd.Flags().StringVarP(&editNotes, "notes", "n", "",
		"Replacement notes")
}

func runEdit(cmd *cobra.Command, args []string) error {
	password, err := masterPassword()
	if err != nil {
		return err
	}

	sess, err := vaultClient.Open(password)
	if err != nil {
		return err
	}
	defer sess.Lock()

	var secret []byte
	if editSecret {
		secret, err = promptPassword("New secret: ")
		if err != nil {
			return err
		}
		if len(secret) == 0 {
			return errEmptySecret
		}
		defer wipeBytes(secret)
	}

	var kind *models.EntryKind
	if cmd.Flags().Changed("kind") {
		parsed, err := models.ParseEntryKind(editKind)
		if err != nil {
			return err
		}
		kind = &parsed
	}

	var notes *string
	if cmd.Flags().Changed("notes") {
		notes = &editNotes
	}

	if secret == nil && kind == nil && notes == nil {
		printWarning("Nothing to change; pass --secret, --kind or --notes")
		return nil
	}

	info, err := sess.Update(args[0], secret, notes, kind)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}
	printSuccess("Entry %q updated", info.Label)
	return nil
}
