package main

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <label-or-id>",
	Short: "Delete an entry",
	Long: `Delete removes an entry permanently. There is no undo; the only way
back is restoring from an exported backup. A confirmation is required unless
--force is given.`,
	Example: `  coldvault delete "old test wallet"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var deleteForce bool

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false,
		"Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
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
	secret.Wipe()

	if !deleteForce && !jsonOutput {
		if !confirm("Permanently delete \"" + info.Label + "\"? This cannot be undone.") {
			printInfo("Aborted.")
			return nil
		}
	}

	if err := sess.Delete(info.ID); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"deleted": info.ID})
		return nil
	}
	printSuccess("Entry %q deleted", info.Label)
	return nil
}
