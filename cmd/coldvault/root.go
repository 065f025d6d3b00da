package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coldvault/coldvault/internal/client"
	"github.com/coldvault/coldvault/internal/config"
	"github.com/coldvault/coldvault/internal/events"
)

var rootCmd = &cobra.Command{
	Use:   "coldvault",
	Short: "Offline vault for cryptocurrency private keys and seed phrases",
	Long: `coldvault stores crypto private keys and seed phrases in a single
encrypted file under your home directory. Everything stays local: no network,
no sync, no cloud. Secrets are sealed with XChaCha20-Poly1305 under a master
key derived from your password with argon2id.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

var (
	flagConfig   string
	flagVault    string
	flagPassword string
	jsonOutput   bool

	cfg         *config.Config
	logger      *events.Logger
	vaultClient *client.Client
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file path")
	rootCmd.PersistentFlags().StringVar(&flagVault, "vault", "",
		"Vault file path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagPassword, "password", "p", "",
		"Master password (will prompt if not provided; prefer the prompt)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Emit structured JSON output for scripted use")
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError("%v", err)
	}
	if vaultClient != nil {
		_ = vaultClient.Close()
	}
	return err
}

// setup loads config and builds the client shared by all commands.
func setup() error {
	loaded, err := config.NewLoader(flagConfig).Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if flagVault != "" {
		cfg.Vault.Dir = ""
		cfg.Vault.File = ""
		dir, file := splitVaultPath(flagVault)
		cfg.Vault.Dir = dir
		cfg.Vault.File = file
	}

	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		out, err = events.OpenLogFile(cfg.Log.File)
		if err != nil {
			return err
		}
	}
	logger = events.New(events.ParseLevel(cfg.Log.Level), cfg.Log.Format, out)

	vaultClient = client.New(cfg, logger)
	return nil
}

// masterPassword resolves the master password: flag, COLDVAULT_PASSWORD env,
// then interactive prompt. Empty passwords are rejected at this layer.
func masterPassword() ([]byte, error) {
	if flagPassword != "" {
		return []byte(flagPassword), nil
	}
	if env := os.Getenv("COLDVAULT_PASSWORD"); env != "" {
		return []byte(env), nil
	}
	pw, err := promptPassword("Master password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return nil, errEmptyPassword
	}
	return pw, nil
}
