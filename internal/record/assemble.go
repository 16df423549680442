// Package record assembles Crossref journal article deposit records.
package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/doideposit/internal/xmltree"
)

// Registrant is the fixed registrant name written into every record head.
const Registrant = "Crossref"

// Envelope for Crossref deposit schema 4.4.0.
const (
	DefaultEnvelopeStart = `<doi_batch xmlns="http://www.crossref.org/schema/4.4.0" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" version="4.4.0" xsi:schemaLocation="http://www.crossref.org/schema/4.4.0 http://www.crossref.org/schemas/crossref4.4.0.xsd">`
	DefaultEnvelopeEnd   = `</doi_batch>`
)

// Parameter defaults applied by Assemble.
const (
	DefaultLanguage        = "en"
	DefaultMediaType       = "print"
	DefaultPublicationType = "full_text"
)

// Identity holds the journal and depositor constants shared by every record.
type Identity struct {
	DOIPrefix     string `yaml:"doi_prefix"`
	JournalTitle  string `yaml:"journal_title"`
	AbbrevTitle   string `yaml:"abbrev_title"`
	ISSN          string `yaml:"issn"`
	DepositorName string `yaml:"depositor_name"`
	Email         string `yaml:"email"`
	EnvelopeStart string `yaml:"envelope_start"`
	EnvelopeEnd   string `yaml:"envelope_end"`
}

// Params are the per-article values of a deposit record.
type Params struct {
	BatchID         string   `json:"doi_batch_id,omitempty"`
	Year            string   `json:"year"`
	Volume          string   `json:"volume"`
	Issue           string   `json:"issue"`
	Title           string   `json:"title"`
	Contributors    []Author `json:"contributors,omitempty"`
	FirstPage       string   `json:"first_page"`
	LastPage        string   `json:"last_page"`
	DOI             string   `json:"doi"`
	Language        string   `json:"language,omitempty"`
	MediaType       string   `json:"media_type,omitempty"`
	PublicationType string   `json:"publication_type,omitempty"`

	// PlaceholderAuthor emits a placeholder contributor when none are given.
	PlaceholderAuthor bool `json:"placeholder_author,omitempty"`
}

// Validate checks that every required parameter is present.
func (p Params) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"year", p.Year},
		{"volume", p.Volume},
		{"issue", p.Issue},
		{"title", p.Title},
		{"first_page", p.FirstPage},
		{"last_page", p.LastPage},
		{"doi", p.DOI},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &MissingFieldError{Field: r.field, Index: -1}
		}
	}
	return nil
}

// EscapeTitle rewrites & as &amp;. No other character is escaped: <, > and
// quotes pass through unchanged, and so does an already escaped &amp;, which
// becomes &amp;amp;.
func EscapeTitle(title string) string {
	return strings.ReplaceAll(title, "&", "&amp;")
}

// BatchID returns the default batch identifier for a record generated at now.
func BatchID(now time.Time) string {
	return strconv.FormatInt(now.Unix(), 10)
}

// Assemble builds the head and body tree of a deposit record. now is read
// once and used for both the timestamp and the default batch id.
func Assemble(p Params, id Identity, now time.Time) (xmltree.Mapping, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	contributors, err := BuildContributors(p.Contributors, p.PlaceholderAuthor)
	if err != nil {
		return nil, err
	}

	stamp := BatchID(now)
	batchID := p.BatchID
	if batchID == "" {
		batchID = stamp
	}

	head := xmltree.Map(
		xmltree.Text("doi_batch_id", batchID),
		xmltree.Text("timestamp", stamp),
		xmltree.Child("depositor", xmltree.Map(
			xmltree.Text("depositor_name", id.DepositorName),
			xmltree.Text("email_address", id.Email),
		)),
		xmltree.Text("registrant", Registrant),
	)

	journal := xmltree.Map(
		xmltree.Child("journal_metadata", xmltree.Map(
			xmltree.Attr("language", orDefault(p.Language, DefaultLanguage)),
			xmltree.Text("full_title", id.JournalTitle),
			xmltree.Text("abbrev_title", id.AbbrevTitle),
			xmltree.Text("issn", id.ISSN),
		)),
		xmltree.Child("journal_issue", xmltree.Map(
			xmltree.Child("publication_date", xmltree.Map(xmltree.Text("year", p.Year))),
			xmltree.Child("journal_volume", xmltree.Map(xmltree.Text("volume", p.Volume))),
			xmltree.Text("issue", p.Issue),
		)),
		xmltree.Child("journal_article", xmltree.Map(
			xmltree.Attr("publication_type", orDefault(p.PublicationType, DefaultPublicationType)),
			xmltree.Child("titles", xmltree.Map(xmltree.Text("title", EscapeTitle(p.Title)))),
			xmltree.Child("contributors", contributors),
			xmltree.Child("publication_date", xmltree.Map(
				xmltree.Attr("media_type", orDefault(p.MediaType, DefaultMediaType)),
				xmltree.Text("year", p.Year),
			)),
			xmltree.Child("pages", xmltree.Map(
				xmltree.Text("first_page", p.FirstPage),
				xmltree.Text("last_page", p.LastPage),
			)),
			xmltree.Text("doi_data", p.DOI),
		)),
	)

	return xmltree.Map(
		xmltree.Child("head", head),
		xmltree.Child("body", xmltree.Map(xmltree.Child("journal", journal))),
	), nil
}

// Generate assembles and serializes a record inside the identity's envelope.
func Generate(p Params, id Identity, now time.Time) (string, error) {
	tree, err := Assemble(p, id, now)
	if err != nil {
		return "", err
	}
	body, err := xmltree.Serialize(tree)
	if err != nil {
		return "", err
	}
	start, end := id.Envelope()
	return start + body + end, nil
}

// Envelope returns the opening and closing envelope, falling back to the
// 4.4.0 schema envelope when unset.
func (id Identity) Envelope() (string, string) {
	return orDefault(id.EnvelopeStart, DefaultEnvelopeStart), orDefault(id.EnvelopeEnd, DefaultEnvelopeEnd)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
