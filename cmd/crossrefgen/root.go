package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/dgallion1/doideposit/internal/config"
	"github.com/spf13/cobra"
)

var (
	version      = "dev"
	identityFile string
	verbose      bool
	cfg          config.Config
	log          *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crossrefgen",
	Short: "Generate, validate and deposit Crossref DOI registration records",
	Long: `crossrefgen builds Crossref journal article deposit records and submits them.

Journal and depositor identity comes from the YAML file named by --identity or
IDENTITY_FILE, with DOI_PREFIX, JOURNAL_TITLE, ABBREV_TITLE, ISSN,
DEPOSITOR_NAME and DEPOSITOR_EMAIL overriding individual fields.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&identityFile, "identity", "",
		"journal identity YAML file (default: $IDENTITY_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	path := identityFile
	if path == "" {
		path = os.Getenv("IDENTITY_FILE")
	}
	loaded, err := config.LoadWithIdentity(path)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// checkIdentity validates the identity. Placeholder values are only fatal when
// strict is set; otherwise they are logged and the command continues.
func checkIdentity(strict bool) error {
	err := cfg.ValidateIdentity()
	var stale *config.PlaceholderIdentityError
	if errors.As(err, &stale) && !strict {
		log.Warn("identity uses placeholder values", "fields", stale.Fields)
		return nil
	}
	if err != nil {
		return err
	}
	if fields := cfg.PlaceholderFields(); len(fields) > 0 {
		log.Warn("identity uses placeholder values", "fields", fields)
	}
	return nil
}
