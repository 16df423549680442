package record

import (
	"strings"

	"github.com/dgallion1/doideposit/internal/xmltree"
)

// Contributor sequence and role values.
const (
	SequenceFirst      = "first"
	SequenceAdditional = "additional"
	RoleAuthor         = "author"
)

// Placeholder author emitted when a record must carry at least one contributor.
const (
	PlaceholderGivenName = "Placeholder"
	PlaceholderSurname   = "Author"
)

// Author is a contributor as supplied by the caller.
type Author struct {
	FirstName string `json:"firstname" yaml:"firstname"`
	LastName  string `json:"lastname" yaml:"lastname"`
}

// BuildContributors converts authors into person_name sub-trees. The first
// author is marked first and every later one additional. With no authors and
// placeholder set, a single placeholder author is returned instead of an
// empty sequence.
func BuildContributors(authors []Author, placeholder bool) (xmltree.Sequence, error) {
	contributors := make(xmltree.Sequence, 0, len(authors))
	for i, a := range authors {
		if strings.TrimSpace(a.FirstName) == "" {
			return nil, &MissingFieldError{Field: "firstname", Index: i}
		}
		if strings.TrimSpace(a.LastName) == "" {
			return nil, &MissingFieldError{Field: "lastname", Index: i}
		}
		seq := SequenceAdditional
		if i == 0 {
			seq = SequenceFirst
		}
		contributors = append(contributors, personName(seq, a.FirstName, a.LastName))
	}

	if len(contributors) == 0 && placeholder {
		contributors = append(contributors, personName(SequenceFirst, PlaceholderGivenName, PlaceholderSurname))
	}
	return contributors, nil
}

func personName(sequence, given, surname string) xmltree.Mapping {
	return xmltree.Map(
		xmltree.Child("person_name", xmltree.Map(
			xmltree.Attr("sequence", sequence),
			xmltree.Attr("contributor_role", RoleAuthor),
			xmltree.Text("given_name", given),
			xmltree.Text("surname", surname),
		)),
	)
}
