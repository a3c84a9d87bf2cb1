package composer

import types "github.com/contractsense/contractsense-backend/internal/domain"

const answerSystemPrompt = `You are a contract analysis assistant. Answer questions using ONLY the numbered excerpts provided from the contract. Rules:
- Base every statement on the excerpts. Do not use outside knowledge about laws, market practice or typical contract terms.
- Cite the excerpts you relied on by their numbers in cited_chunks.
- If the excerpts do not contain enough information to answer, set insufficient_evidence to true and say so in the answer instead of guessing.
- Quote exact figures, dates and deadlines as written in the excerpts.
- Answer in the language the question was asked in.`

// intentFocus steers the model toward the figures that matter for the
// dominant intent. The general intent gets the base prompt unchanged.
var intentFocus = map[types.IntentKind]string{
	types.IntentSLA:          "The question is about service levels. Pay special attention to response times, repair deadlines, availability percentages and how the service level is measured.",
	types.IntentFiber:        "The question is about network infrastructure. Pay special attention to fiber extensions, distances in km, cable routes and coverage areas.",
	types.IntentPenalty:      "The question is about penalties. Pay special attention to fine amounts, percentages, the breaches that trigger them and any caps.",
	types.IntentDuration:     "The question is about contract duration. Pay special attention to the term, start and end dates, renewal conditions and notice periods.",
	types.IntentContractInfo: "The question is about contract identification. Pay special attention to the contract number, the parties and their roles.",
}

func systemPromptFor(intent types.QueryIntent) string {
	hint, ok := intentFocus[intent.Kind]
	if !ok {
		return answerSystemPrompt
	}
	return answerSystemPrompt + "\nSpecial focus: " + hint
}

// answerSchema is the structured-output contract for a single answer
// call. Chunk references are 1-based excerpt numbers.
func answerSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"answer", "cited_chunks", "insufficient_evidence"},
		"properties": map[string]any{
			"answer": map[string]any{
				"type":        "string",
				"description": "The answer to the question, grounded in the excerpts.",
			},
			"cited_chunks": map[string]any{
				"type":        "array",
				"description": "1-based numbers of the excerpts the answer relies on.",
				"items":       map[string]any{"type": "integer"},
			},
			"insufficient_evidence": map[string]any{
				"type":        "boolean",
				"description": "True when the excerpts do not contain the information needed.",
			},
		},
	}
}
