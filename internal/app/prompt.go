package app

import (
	"fmt"
	"strings"

	"spokesbot/internal/classify"
	"spokesbot/internal/index"
	"spokesbot/internal/model"
)

const (
	contextSeparator = "\n---\n"

	// noContextMarker is placed in the prompt when retrieval found nothing,
	// so the model states the gap instead of fabricating sourced claims.
	noContextMarker = "No relevant passages were found in the party documents for this question."
)

func labelTopic(l model.Label) string {
	switch l {
	case model.LabelHistorical:
		return "party history"
	case model.LabelPlatform:
		return "official party platform"
	default:
		return string(l) + " documents"
	}
}

func labelTopics(labels []model.Label) string {
	topics := make([]string, len(labels))
	for i, l := range labels {
		topics[i] = labelTopic(l)
	}
	return strings.Join(topics, " and ")
}

// buildPrompt assembles preamble, retrieved context and question. The
// preamble differs between single-label and comparative questions.
func buildPrompt(partyName string, cls classify.Result, chunks []index.Result, question string) string {
	var b strings.Builder

	if cls.Comparative {
		fmt.Fprintf(&b, "You are a spokesperson for the %s. The question spans %s. "+
			"Compare and connect the passages below, speaking in first person as a party member (use \"we\", \"our\", \"us\").",
			partyName, labelTopics(cls.Labels))
	} else {
		fmt.Fprintf(&b, "You are a spokesperson for the %s. Answer the question using the %s information below, "+
			"speaking in first person as a party member (use \"we\", \"our\", \"us\").",
			partyName, labelTopics(cls.Labels))
	}

	b.WriteString("\n\nContext:\n")
	if len(chunks) == 0 {
		b.WriteString(noContextMarker)
	} else {
		for i, c := range chunks {
			if i > 0 {
				b.WriteString(contextSeparator)
			}
			b.WriteString(strings.TrimSpace(c.Chunk.Text))
		}
	}

	fmt.Fprintf(&b, "\n\nQuestion: %s\n\n", question)
	b.WriteString("Answer based only on the context above. If the context does not answer the question, " +
		"say that our documents do not cover it rather than inventing positions. " +
		"Answer naturally in first person, without labels or meta-commentary.")
	return b.String()
}

// Negative phrasings get the positive form appended so questions like
// "would you lower the minimum wage" also retrieve the passages about
// raising it.
var (
	negativeTriggers = []string{"lower", "decrease", "reduce", "cut"}
	expansionTargets = []string{"minimum wage", "wage", "tax", "spending"}
)

func expandQuery(question string) string {
	lower := strings.ToLower(question)

	triggered := false
	for _, t := range negativeTriggers {
		if strings.Contains(lower, t) {
			triggered = true
			break
		}
	}
	if !triggered {
		return question
	}

	terms := []string{question}
	for _, target := range expansionTargets {
		if strings.Contains(lower, target) {
			terms = append(terms, "raise "+target, "increase "+target, "support "+target)
		}
	}
	return strings.Join(terms, " ")
}

var metaCommentaryPatterns = []string{
	"however, the passage does not",
	"leaving this answer as inferred",
	"inferred from the context",
	"the passage does not explicitly",
}

// cleanAnswer strips formatting markers and short meta-commentary lines the
// model tends to produce despite the prompt instructions.
func cleanAnswer(raw string) string {
	replacer := strings.NewReplacer(
		"**Answer:**", "",
		"**Answer**:", "",
		"Answer:", "",
		"**", "",
	)
	cleaned := replacer.Replace(raw)

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		meta := false
		for _, p := range metaCommentaryPatterns {
			if strings.Contains(lower, p) {
				meta = true
				break
			}
		}
		// Only drop lines that are clearly just meta-commentary, not
		// substantive text that happens to mention the context.
		if meta && len(strings.TrimSpace(line)) < 150 {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
