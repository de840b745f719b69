//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"fmt"
	"strings"
)

// Name is the command and module identifier. It appears in help text,
// the login banner, and the default configuration paths.
const Name = "quill"

// Description is the one-line summary shown at the top of help output.
const Description = "Interactive shell with template-driven prompts"

// Version is the semantic version embedded from the VERSION file at
// build time.
//
//go:embed VERSION
var Version string

// AuthorInfo identifies one project author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the project authors for version output.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{Name: "ardnew", Email: "andrew@ardnew.com"},
}

// Title returns the name and version of this build.
func Title() string {
	return Name + " " + strings.TrimSpace(Version)
}

// Credits returns the formatted author list for version output.
func Credits() string {
	credits := make([]string, len(Author))
	for i, a := range Author {
		credits[i] = fmt.Sprintf("%s <%s>", a.Name, a.Email)
	}

	return strings.Join(credits, ", ")
}
