package main

import (
	"time"

	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy <label-or-id>",
	Short: "Copy a secret to the clipboard",
	Long: `Copy places the decrypted secret on the system clipboard and clears it
again after a countdown (10 seconds by default). The clear is skipped if you
copied something else in the meantime, so unrelated clipboard content is
never clobbered.`,
	Example: `  coldvault copy "BTC cold key"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCopy,
}

func init() {
	rootCmd.AddCommand(copyCmd)
}

func runCopy(cmd *cobra.Command, args []string) error {
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

	text, err := secret.String()
	if err != nil {
		return err
	}

	if err := vaultClient.Clipboard.Copy(text); err != nil {
		return err
	}

	printSuccess("Secret for %q copied; clipboard clears in %s",
		info.Label, cfg.Clipboard.ClearAfter)

	// The process must outlive the countdown for the guard to clear.
	time.Sleep(cfg.Clipboard.ClearAfter + 500*time.Millisecond)
	return nil
}
