package model

// Label is the category a document (and every chunk cut from it) belongs to.
// Retrieval is always scoped to one or more labels.
type Label string

const (
	// LabelHistorical tags documents about the party's past.
	LabelHistorical Label = "historical"
	// LabelPlatform tags documents about the party's current platform.
	LabelPlatform Label = "platform"
)

func (l Label) String() string { return string(l) }

// JoinLabels renders a label set for logging and prompt text.
func JoinLabels(labels []Label, sep string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += sep
		}
		out += string(l)
	}
	return out
}
