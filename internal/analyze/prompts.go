package analyze

import (
	"fmt"
	"strings"

	"LinkSynth/internal/domain"
)

// analysisPrompt is the fixed persona prompt for single-conversation
// summarization. The section order and field names are part of the contract
// with downstream consumers.
const analysisPrompt = `You are the "Pragmatic Architect"—technical, 1st-person, economical, and systems-focused.
Your goal is to synthesize the following LLM conversation into a structured Obsidian/Markdown asset.

STRUCTURE:
1. Frontmatter: date, source, tags (array), status (unverified).
2. Header: # Title
3. Context: Brief overview of the challenge.
4. The Solution: Technical breakthroughs and insights (Theory).
5. Blog Post draft: A narrative-style reflection for sharing (Execution).

RULES:
- Voice: Direct, intellectually honest, direct wittiness as a de-pressurizer, no marketing fluff.
- breakthroughs: Focus on MANUFACTURING problems, Ops, and specific technical friction points.
- Format: High-fidelity Markdown.

Provide the output in JSON format with fields:
- title: (Short string)
- summary: (1-2 sentences)
- content_markdown: (The full structured markdown asset)
- metadata: { tags: string[] }`

// buildSynthesisPrompt aggregates per-conversation sections into one
// cross-document merge request with a fixed six-field JSON contract.
func buildSynthesisPrompt(projectName string, inputs []domain.SynthesisInput) string {
	summaries := make([]string, 0, len(inputs))
	for i, input := range inputs {
		var b strings.Builder
		fmt.Fprintf(&b, "=== Conversation %d: %s ===\n\n", i+1, input.Title)
		b.WriteString("Key Insights:\n")
		writeBullets(&b, input.KeyInsights)
		b.WriteString("\nAction Items:\n")
		writeBullets(&b, input.ActionItems)
		b.WriteString("\nThemes:\n")
		writeBullets(&b, input.Themes)
		summaries = append(summaries, b.String())
	}

	return fmt.Sprintf(`You are synthesizing %d related conversations into a cohesive narrative for a project called %q.

%s

Create a comprehensive synthesis that:
1. **Identifies overarching themes** across all conversations
2. **Consolidates key insights** (merge similar, highlight unique)
3. **Unifies action items** (remove duplicates, prioritize)
4. **Provides a cohesive narrative** linking the conversations
5. **Highlights contradictions** or differing perspectives if any exist
6. **Suggests next steps** based on the combined insights

Output ONLY valid JSON (no markdown, no code blocks) with this structure:
{
  "key_insights": ["insight 1", "insight 2", ...],
  "action_items": ["action 1", "action 2", ...],
  "themes": ["theme 1", "theme 2", ...],
  "contradictions": ["contradiction 1 if any", ...],
  "synthesis_narrative": "A 2-3 paragraph cohesive summary that ties everything together",
  "next_steps": ["recommended next step 1", ...]
}`, len(inputs), projectName, strings.Join(summaries, "\n---\n"))
}

func writeBullets(b *strings.Builder, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(b, "• %s\n", line)
	}
}
