package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/doideposit/internal/xmltree"
	"github.com/spf13/cobra"
)

var renderEnvelope bool

var renderCmd = &cobra.Command{
	Use:   "render FILE.json",
	Short: "Serialize a JSON tree to markup",
	Long: `Serialize a JSON document to markup. Object keys become elements in file
order, keys starting with @ become attributes of the enclosing element, and
array elements are joined by a space inside the owning element.

Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderEnvelope, "envelope", false, "wrap the output in the identity envelope")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := checkIdentity(false); err != nil {
		return err
	}
	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open tree: %w", err)
		}
		defer f.Close()
		in = f
	}

	tree, err := xmltree.DecodeJSON(in)
	if err != nil {
		return err
	}
	log.Debug("tree decoded", "tree", xmltree.Dump(tree))

	out, err := xmltree.Serialize(tree)
	if err != nil {
		return err
	}
	if renderEnvelope {
		start, end := cfg.Identity.Envelope()
		out = start + out + end
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
