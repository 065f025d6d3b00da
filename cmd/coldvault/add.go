package main

import (
	"github.com/spf13/cobra"

	"github.com/coldvault/coldvault/internal/models"
)

var addCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Add a new entry to the vault",
	Long: `Add seals a new secret into the vault. The secret is prompted without
echo unless --secret-stdin is given, in which case it is read from stdin
(for piping from another tool).`,
	Example: `  coldvault add "BTC cold key" --kind private-key
  gpg -d seed.gpg | coldvault add "ETH seed" --kind seed-phrase --secret-stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var (
	addKind        string
	addNotes       string
	addSecretStdin bool
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addKind, "kind", "k", "other",
		"Entry kind: private-key, seed-phrase or other")
	addCmd.Flags().StringVarP(&addNotes, "notes", "n", "",
		"Free-text notes stored with the entry (network, address, ...)")
	addCmd.Flags().BoolVar(&addSecretStdin, "secret-stdin", false,
		"Read the secret from stdin instead of prompting")
}

func runAdd(cmd *cobra.Command, args []string) error {
	label := args[0]

	kind, err := models.ParseEntryKind(addKind)
	if err != nil {
		return err
	}

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
	if addSecretStdin {
		secret, err = readStdin()
	} else {
		secret, err = promptPassword("Secret: ")
	}
	if err != nil {
		return err
	}
	if len(secret) == 0 {
		return errEmptySecret
	}

	info, err := sess.Add(label, kind, secret, addNotes)
	wipeBytes(secret)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}
	printSuccess("Entry %q added", info.Label)
	return nil
}
