package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/doideposit/internal/crossref"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a record against the Crossref schema parser",
	Long: `Upload a record to the Crossref schema parser page and report its verdict.

The parser URL defaults to the public XSDParse page and can be changed with
VALIDATE_URL. Exits non-zero when the record is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var depositCmd = &cobra.Command{
	Use:   "deposit FILE",
	Short: "Upload a record to the Crossref deposit servlet",
	Long: `Upload a record to the Crossref deposit servlet.

Credentials come from DEPOSIT_LOGIN and DEPOSIT_PASSWORD. The identity must not
use placeholder values unless ALLOW_PLACEHOLDER_IDENTITY=true. Crossref queues
the upload and mails the processing result to the depositor.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeposit,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(depositCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := checkIdentity(false); err != nil {
		return err
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}

	v := crossref.NewValidator(cfg.ValidateURL, cfg.HTTPTimeout, nil)
	defer v.Close()

	verdict, err := v.Validate(cmd.Context(), filepath.Base(path), string(data))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), verdict.Feedback)
	if !verdict.Valid {
		return errors.New("record is not valid")
	}
	log.Info("record is valid", "path", path)
	return nil
}

func runDeposit(cmd *cobra.Command, args []string) error {
	if err := checkIdentity(true); err != nil {
		return err
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}

	d := crossref.NewDepositor(cfg.DepositURL, cfg.DepositLogin, cfg.DepositPassword, cfg.HTTPTimeout, nil)
	defer d.Close()

	resp, err := d.Deposit(cmd.Context(), filepath.Base(path), string(data))
	if err != nil {
		var se *crossref.StatusError
		if errors.As(err, &se) {
			fmt.Fprintln(cmd.OutOrStdout(), se.Body)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
	log.Info("record deposited", "path", path, "status", resp.StatusCode)
	return nil
}
