package revision

import (
	"strings"
	"time"
)

// DateFormat is the layout used for {date} in log formats.
const DateFormat = "2006/01/02"

// Metadata describes a revision as reported by its repository.
type Metadata struct {
	ID          string
	Author      string
	Date        time.Time
	Description string
	Parents     []Revision
}

// FormatDescription returns a copy of md whose Description is format with
// the placeholders {id}, {author}, {date}, {description} and {parents}
// substituted. All other fields are unchanged.
func FormatDescription(md Metadata, format string) Metadata {
	parents := make([]string, len(md.Parents))
	for i, p := range md.Parents {
		parents[i] = p.ID
	}
	r := strings.NewReplacer(
		"{id}", md.ID,
		"{author}", md.Author,
		"{date}", md.Date.Format(DateFormat),
		"{description}", md.Description,
		"{parents}", strings.Join(parents, ", "),
	)
	out := md
	out.Parents = append([]Revision(nil), md.Parents...)
	out.Description = r.Replace(format)
	return out
}
