package extract

import (
	"fmt"
	"strings"
)

// sufficiencyPromptTemplate asks the model to answer strictly from the
// scraped text or declare it insufficient.
const sufficiencyPromptTemplate = `Original User Query: %q

Text Scraped from: %s
--- START SCRAPED TEXT ---
%s
--- END SCRAPED TEXT ---

Instruction: Based *only* on the 'SCRAPED TEXT' above, determine if you can answer the 'Original User Query'.

- If the scraped text directly answers the query, respond with "Final Answer:" followed by your answer. You may add a final line "Confidence: <value between 0.0 and 1.0>" rating how directly the text answers the query.
- If the scraped text is insufficient or irrelevant, respond *only* with: "Insufficient context"

Important:
- Use only information from the scraped text, not prior knowledge.
- Do not infer information not explicitly stated in the text.
- If the query asks for specific details missing from the text, it is insufficient.

Example 1:
Query: "What is the capital of France?"
Text: "France is a country in Europe known for its cuisine and landmarks like the Eiffel Tower."
Response: "Insufficient context"

Example 2:
Query: "When was the iPhone 15 Pro Max released?"
Text: "The iPhone 7 was released in 2016 with no headphone jack."
Response: "Insufficient context"
`

// failureSummaryPromptTemplate asks for a short explanation after a run
// ends with no answer.
const failureSummaryPromptTemplate = `Original User Query: %q

I attempted to answer by scraping these URLs, but none provided sufficient context:
%s

Provide a brief (1-2 sentence) explanation for why finding a direct answer might have been difficult.

Possible reasons:
- Query too broad or vague (lacks specificity)
- Query too specific or niche (requires rare/detailed data)
- Query about a very recent event (information not widely available)
- URLs scraped seem unrelated to the query
- Other reasons (specify)

Please identify which reason(s) likely apply.
`

func buildSufficiencyPrompt(query, url, text string) string {
	return fmt.Sprintf(sufficiencyPromptTemplate, query, url, text)
}

// BuildFailureSummaryPrompt formats the no-answer explanation request
// over the URLs the run actually tried.
func BuildFailureSummaryPrompt(query string, triedURLs []string) string {
	lines := make([]string, 0, len(triedURLs))
	for _, u := range triedURLs {
		lines = append(lines, "- "+u)
	}
	if len(lines) == 0 {
		lines = append(lines, "(no URLs were tried)")
	}
	return fmt.Sprintf(failureSummaryPromptTemplate, query, strings.Join(lines, "\n"))
}
