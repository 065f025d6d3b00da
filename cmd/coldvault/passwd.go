package main

import (
	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the master password",
	Long: `Passwd re-keys the entire vault: a new salt is generated, a new master
key derived, and every entry re-sealed under it. The switch is a single
atomic write; the vault is never on disk in a partially re-keyed state.`,
	Args: cobra.NoArgs,
	RunE: runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}

func runPasswd(cmd *cobra.Command, args []string) error {
	oldPassword, err := masterPassword()
	if err != nil {
		return err
	}

	sess, err := vaultClient.Open(oldPassword)
	if err != nil {
		return err
	}
	defer sess.Lock()

	newPassword, err := promptNewPassword("New master password: ")
	if err != nil {
		return err
	}

	if err := sess.ChangePassword(oldPassword, newPassword, vaultClient.KDFParams()); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"changed": true})
		return nil
	}
	printSuccess("Master password changed")
	return nil
}
