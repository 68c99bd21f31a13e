package matching

import (
	"fmt"
	"strings"

	"colmatch/internal/domain"
)

// BuildPrompt renders the deterministic single-header matching prompt.
//
// One prompt per source header by design: bounding the response to a single
// JSON object is the primary defense against truncated model output.
func BuildPrompt(sourceHeader string, targetHeaders []string, existingMappings []domain.ColumnMapping, industryContext string) string {
	var b strings.Builder

	b.WriteString("CRITICAL INSTRUCTION: You are a JSON API. You must respond with ONLY valid JSON. No markdown, no explanations, no additional text.\n\n")
	b.WriteString("TASK: Match ONE source header to the most appropriate target header using the following approach:\n")
	b.WriteString("1. EXACT matches from existing mappings (100% confidence)\n")
	b.WriteString("2. PATTERN-based matches learned from existing mappings (high confidence)\n")
	b.WriteString("3. SEMANTIC similarity and business logic (variable confidence)\n")
	b.WriteString("4. Common abbreviations and naming conventions\n\n")

	if len(existingMappings) > 0 {
		b.WriteString("EXISTING MAPPINGS (Learn from these patterns):\n")
		for _, m := range existingMappings {
			b.WriteString("- ")
			b.WriteString(m.PromptLine())
			b.WriteString("\n")
		}
		b.WriteString("\nPATTERN ANALYSIS: Study the above mappings to understand naming conventions, abbreviation patterns, and business logic relationships.\n\n")
	}

	b.WriteString("TARGET HEADERS (Available options to match to):\n")
	for i, target := range targetHeaders {
		fmt.Fprintf(&b, "%d. %s\n", i+1, target)
	}
	b.WriteString("\n")

	b.WriteString("SOURCE HEADER TO MATCH:\n")
	b.WriteString(sourceHeader)
	b.WriteString("\n\n")

	b.WriteString("MATCHING GUIDELINES:\n")
	b.WriteString("- First check for exact matches in existing mappings\n")
	b.WriteString("- Learn patterns from existing mappings (e.g., abbreviations, naming conventions)\n")
	b.WriteString("- Apply business logic and semantic similarity\n")
	b.WriteString("- Consider common abbreviations (Qty=Quantity, Desc=Description, etc.)\n")
	b.WriteString("- Be consistent with learned patterns\n")
	b.WriteString("- Flag whether you used an existing mapping or inferred the match\n\n")

	if ctx := strings.TrimSpace(industryContext); ctx != "" {
		b.WriteString("INDUSTRY CONTEXT: ")
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}

	b.WriteString("CRITICAL: You must respond with ONLY a valid JSON object. Do not include any markdown formatting, explanations, or additional text.\n")
	b.WriteString("OUTPUT FORMAT: Return ONLY this JSON object:\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"sourceHeader\": %q,\n", sourceHeader)
	b.WriteString("  \"matchedTargetHeader\": \"string\",\n")
	b.WriteString("  \"confidencePercentage\": number,\n")
	b.WriteString("  \"reasoning\": \"string\",\n")
	b.WriteString("  \"usedExistingMapping\": boolean\n")
	b.WriteString("}\n\n")
	b.WriteString("IMPORTANT: Start your response with { and end with }. No markdown backticks, no explanations before or after the JSON.\n")

	return b.String()
}
