// Package prompt composes the instruction payload sent to the LLM
// gateway and decides how much retrieval context each intent gets.
package prompt

import (
	"strings"

	"github.com/denizyalin/museguide/internal/intent"
	"github.com/denizyalin/museguide/internal/retrieval"
)

// ChunkCount decides how many passages to request for an intent.
// Detailed and list answers take more context; exhibit-scoped queries
// take less because the search space is already narrowed.
func ChunkCount(in intent.Intent, exhibitScoped bool) int {
	switch in {
	case intent.Detailed:
		return 10
	case intent.List:
		return 12
	}
	if exhibitScoped {
		return 4
	}
	return 6
}

// System builds the system instruction: persona, the intent's
// length/format rule, few-shot examples where shape matters, and the
// exhibit-mode rules when a scope is active.
func System(in intent.Intent, exhibitName string) string {
	var b strings.Builder
	b.WriteString(BasePersona)

	instruction, ok := responseInstructions[in]
	if !ok {
		instruction = responseInstructions[intent.Medium]
	}
	b.WriteString("\n")
	b.WriteString(instruction)

	if in == intent.Medium || in == intent.Detailed {
		b.WriteString("\n")
		b.WriteString(exampleDialogues)
	}

	if exhibitName != "" {
		b.WriteString(exhibitModeRules)
		b.WriteString("\n\nŞU AN İNCELENEN ESER: ")
		b.WriteString(exhibitName)
		b.WriteString("\n(Ziyaretçi bu eserin önünde durarak QR kodu taramış.)")
	}

	return b.String()
}

// Build composes the user payload in fixed order: visitor memory,
// conversation history, retrieved context, then the question.
func Build(question string, passages []retrieval.Passage, historySummary, memorySummary string) string {
	var sections []string

	if memorySummary != "" {
		sections = append(sections, memorySummary)
	}
	if historySummary != "" {
		sections = append(sections, historySummary)
	}

	if len(passages) > 0 {
		texts := make([]string, 0, len(passages))
		for _, p := range passages {
			texts = append(texts, p.Content)
		}
		sections = append(sections, "İLGİLİ BİLGİLER:\n"+strings.Join(texts, "\n---\n"))
	}

	context := strings.Join(sections, "\n\n---\n\n")

	var b strings.Builder
	b.WriteString("Bağlam:\n")
	b.WriteString(context)
	b.WriteString("\n\nSoru: ")
	b.WriteString(question)
	b.WriteString("\nCevap:")
	return b.String()
}

// Sources lists the distinct source files behind the passages, in
// retrieval order.
func Sources(passages []retrieval.Passage) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range passages {
		src := p.Metadata[retrieval.MetaSource]
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}
