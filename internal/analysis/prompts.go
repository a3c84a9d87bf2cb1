package analysis

import "fmt"

const clauseSystemPrompt = `You are a contract clause classifier. You receive numbered excerpts from one contract and a clause type to look for. Rules:
- Decide from the excerpts ONLY whether the contract contains that clause type.
- If present: extract the clause text verbatim, write a one or two sentence summary, judge the risk, and report which excerpt the clause lives in.
- If the excerpts are about other subjects, report the clause as absent. Do not stretch a tangential mention into a finding.
- Summaries are written in the language of the contract.`

func clausePrompt(e CatalogueEntry, excerpts string) string {
	return fmt.Sprintf(`Clause type: %s
What it covers: %s
Risk guidance: %s

Contract excerpts:

%s`, e.Type, e.Description, e.RiskGuidance, excerpts)
}

func clauseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"present", "clause_text", "summary", "risk", "excerpt"},
		"properties": map[string]any{
			"present": map[string]any{
				"type":        "boolean",
				"description": "Whether the excerpts contain this clause type.",
			},
			"clause_text": map[string]any{
				"type":        "string",
				"description": "Verbatim clause text when present, empty otherwise.",
			},
			"summary": map[string]any{
				"type":        "string",
				"description": "One or two sentence summary when present, empty otherwise.",
			},
			"risk": map[string]any{
				"type":        "string",
				"enum":        []string{"low", "medium", "high", ""},
				"description": "Risk judgment per the guidance, empty when absent.",
			},
			"excerpt": map[string]any{
				"type":        "integer",
				"description": "1-based number of the excerpt containing the clause, 0 when absent.",
			},
		},
	}
}
