package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/coldvault/coldvault/internal/models"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	labelColor   = color.New(color.FgCyan)
)

func printSuccess(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", successColor.Sprint("✓"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor.Sprint("✗"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnColor.Sprint("!"), fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// printJSON writes structured output to stdout for scripted use.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// printEntryTable renders entries as an aligned plain-text table on stdout.
func printEntryTable(entries []models.EntryInfo) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tLABEL\tKIND\tUPDATED")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, e.Label, e.Kind, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// printEntryDetail renders one entry; the secret is included only when the
// caller decrypted it on purpose.
func printEntryDetail(info models.EntryInfo, secret string) {
	fmt.Printf("%s %s\n", labelColor.Sprint("Label:"), info.Label)
	fmt.Printf("%s %s\n", labelColor.Sprint("Kind:"), info.Kind)
	if info.Metadata != "" {
		fmt.Printf("%s %s\n", labelColor.Sprint("Notes:"), info.Metadata)
	}
	fmt.Printf("%s %s\n", labelColor.Sprint("Created:"), info.CreatedAt.Local().Format(time.RFC1123))
	fmt.Printf("%s %s\n", labelColor.Sprint("Updated:"), info.UpdatedAt.Local().Format(time.RFC1123))
	if secret != "" {
		fmt.Printf("%s %s\n", labelColor.Sprint("Secret:"), secret)
	}
}

// splitVaultPath splits a full vault path into directory and file name.
func splitVaultPath(path string) (dir, file string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Dir(abs), filepath.Base(abs)
}

// trimQuotes strips shell quoting users paste around paths.
func trimQuotes(s string) string {
	return strings.Trim(s, `'"`)
}
