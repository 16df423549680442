package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/doideposit/internal/manuscript"
	"github.com/dgallion1/doideposit/internal/record"
	"github.com/dgallion1/doideposit/internal/sink"
	"github.com/dgallion1/doideposit/internal/xmltree"
	"github.com/spf13/cobra"
)

var (
	genParams     record.Params
	genAuthors    []string
	genManuscript string
	genOut        string
	genDump       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a deposit record for one journal article",
	Long: `Generate a Crossref deposit record for one journal article.

Authors are given as --author First:Last, in order; the first one is marked as
the first author. Without authors a placeholder contributor is emitted unless
--placeholder-author=false.

When --manuscript names a .md, .html, .txt, .docx or .pdf file, its title fills
an empty --title and its page count fills an empty --last-page.

Examples:
  crossrefgen generate --year 1986 --volume 1 --issue 2 --title "Cats & Dogs" \
    --first-page 12 --last-page 24 --doi 123445 --author Ada:Lovelace

  # Write to stdout and show the record tree on stderr
  crossrefgen generate ... --out - --dump`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genParams.Year, "year", "", "issue year")
	f.StringVar(&genParams.Volume, "volume", "", "journal volume")
	f.StringVar(&genParams.Issue, "issue", "", "journal issue")
	f.StringVar(&genParams.Title, "title", "", "article title")
	f.StringVar(&genParams.FirstPage, "first-page", "", "first page")
	f.StringVar(&genParams.LastPage, "last-page", "", "last page")
	f.StringVar(&genParams.DOI, "doi", "", "article DOI")
	f.StringVar(&genParams.BatchID, "batch-id", "", "batch id (default: current unix time)")
	f.StringVar(&genParams.Language, "language", record.DefaultLanguage, "journal metadata language")
	f.StringVar(&genParams.MediaType, "media-type", record.DefaultMediaType, "publication date media type")
	f.StringVar(&genParams.PublicationType, "publication-type", record.DefaultPublicationType, "article publication type")
	f.BoolVar(&genParams.PlaceholderAuthor, "placeholder-author", true, "emit a placeholder contributor when no authors are given")
	f.StringArrayVarP(&genAuthors, "author", "a", nil, "author as First:Last (repeatable)")
	f.StringVarP(&genManuscript, "manuscript", "m", "", "manuscript file to read the title and page count from")
	f.StringVarP(&genOut, "out", "o", "temporary.xml", "output file, or - for stdout")
	f.BoolVar(&genDump, "dump", false, "print the record tree to stderr")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := checkIdentity(false); err != nil {
		return err
	}

	p := genParams
	authors, err := parseAuthors(genAuthors)
	if err != nil {
		return err
	}
	p.Contributors = authors

	if genManuscript != "" {
		if err := applyManuscript(&p, genManuscript); err != nil {
			return err
		}
	}

	now := time.Now()
	if genDump {
		tree, err := record.Assemble(p, cfg.Identity, now)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), xmltree.Dump(tree))
	}

	out, err := record.Generate(p, cfg.Identity, now)
	if err != nil {
		return err
	}

	if genOut == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	dest := sink.NewFile(filepath.Dir(genOut))
	if err := dest.Write(cmd.Context(), filepath.Base(genOut), out); err != nil {
		return err
	}
	log.Info("record written", "path", genOut, "doi", p.DOI, "contributors", len(p.Contributors))
	return nil
}

func applyManuscript(p *record.Params, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open manuscript: %w", err)
	}
	defer f.Close()

	m, err := manuscript.Inspect(f, path)
	if err != nil {
		return err
	}
	log.Debug("manuscript inspected", "path", path, "title", m.Title, "pages", m.Pages)
	return m.Apply(p)
}

// parseAuthors turns First:Last values into authors, keeping their order.
func parseAuthors(values []string) ([]record.Author, error) {
	authors := make([]record.Author, 0, len(values))
	for _, v := range values {
		first, last, ok := strings.Cut(v, ":")
		if !ok {
			return nil, fmt.Errorf("author %q: want First:Last", v)
		}
		authors = append(authors, record.Author{
			FirstName: strings.TrimSpace(first),
			LastName:  strings.TrimSpace(last),
		})
	}
	return authors, nil
}
