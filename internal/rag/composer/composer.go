// Package composer turns retrieved chunks into a cited, confidence
// scored answer via one structured-output model call.
package composer

import (
	"context"
	"fmt"
	"strings"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/rag/retriever"
)

const (
	// DefaultContextBudget bounds the total excerpt runes sent to the
	// model. Lower-ranked chunks are dropped whole past the budget.
	DefaultContextBudget = 8000

	// Confidence blends the retrieval signal with the model's own
	// sufficiency claim. Weights are tunables, not a contract.
	confidenceTopWeight    = 0.65
	confidenceMeanWeight   = 0.35
	insufficientConfidence = 0.25

	noEvidenceAnswer = "The question cannot be answered from the document: no relevant passage was found."
	degradedAnswer   = "The question could not be answered because the language model was unavailable. The document itself may still contain the answer; please retry."
)

// Generator is the model-side slice of the OpenAI client.
type Generator interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
}

type Composer struct {
	log           *logger.Logger
	gen           Generator
	contextBudget int
}

type Option func(*Composer)

func WithContextBudget(runes int) Option {
	return func(c *Composer) {
		if runes > 0 {
			c.contextBudget = runes
		}
	}
}

func New(log *logger.Logger, gen Generator, opts ...Option) *Composer {
	c := &Composer{
		log:           log.With("component", "composer"),
		gen:           gen,
		contextBudget: envutil.Int("RAG_CONTEXT_BUDGET_RUNES", DefaultContextBudget),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose answers the question from the ranked hits. Empty hits short
// circuit to the fixed no-evidence response without touching the model.
// A model failure after the client's own retries degrades to the same
// no-answer shape, annotated with the failure kind; Compose itself only
// errors on invalid input. The question is classified first and the
// intent both specializes the system prompt and is recorded on the
// response, every path included.
func (c *Composer) Compose(ctx context.Context, question string, hits []retriever.Hit) (*types.QueryResponse, error) {
	if question == "" {
		return nil, errors.InvalidInput("composer.Compose", "question is required")
	}
	intent := classifyIntent(question)

	if len(hits) == 0 {
		resp := &types.QueryResponse{
			Question:   question,
			Answer:     noEvidenceAnswer,
			Confidence: 0,
		}
		if err := finishResponse(resp, nil, intent); err != nil {
			return nil, err
		}
		return resp, nil
	}

	kept := c.fitBudget(hits)
	out, err := c.gen.GenerateJSON(ctx, systemPromptFor(intent), c.userPrompt(question, kept), "answer", answerSchema())
	if err != nil {
		kind := errors.KindOf(err)
		c.log.Warn("answer generation degraded to no-answer",
			"failure_kind", string(kind), "error", err)
		resp := &types.QueryResponse{
			Question:    question,
			Answer:      degradedAnswer,
			Confidence:  0,
			FailureKind: string(kind),
		}
		if serr := finishResponse(resp, nil, intent); serr != nil {
			return nil, serr
		}
		return resp, nil
	}

	answer, _ := out["answer"].(string)
	insufficient, _ := out["insufficient_evidence"].(bool)
	cited := citedHits(out["cited_chunks"], kept)

	resp := &types.QueryResponse{
		Question:   question,
		Answer:     strings.TrimSpace(answer),
		Confidence: confidence(kept, insufficient),
	}
	if resp.Answer == "" {
		resp.Answer = noEvidenceAnswer
		resp.Confidence = 0
	}
	if err := finishResponse(resp, citations(cited), intent); err != nil {
		return nil, err
	}
	return resp, nil
}

func finishResponse(resp *types.QueryResponse, cs []types.Citation, intent types.QueryIntent) error {
	if err := resp.SetCitations(cs); err != nil {
		return err
	}
	return resp.SetIntent(intent)
}

// fitBudget keeps hits in ranked order until the cumulative rune count
// would exceed the budget. Chunks are never truncated; at least the top
// hit always survives.
func (c *Composer) fitBudget(hits []retriever.Hit) []retriever.Hit {
	kept := make([]retriever.Hit, 0, len(hits))
	total := 0
	for _, h := range hits {
		n := len([]rune(h.Chunk.Text))
		if len(kept) > 0 && total+n > c.contextBudget {
			break
		}
		kept = append(kept, h)
		total += n
	}
	return kept
}

func (c *Composer) userPrompt(question string, hits []retriever.Hit) string {
	var b strings.Builder
	b.WriteString("Contract excerpts:\n\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, h.Chunk.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// citedHits maps the model's 1-based excerpt numbers back to hits,
// preserving rank order and dropping out-of-range or repeated refs.
func citedHits(refs any, hits []retriever.Hit) []retriever.Hit {
	list, ok := refs.([]any)
	if !ok {
		return nil
	}
	seen := make(map[int]bool, len(list))
	for _, raw := range list {
		num, ok := raw.(float64)
		if !ok {
			continue
		}
		idx := int(num) - 1
		if idx >= 0 && idx < len(hits) {
			seen[idx] = true
		}
	}
	var out []retriever.Hit
	for i := range hits {
		if seen[i] {
			out = append(out, hits[i])
		}
	}
	return out
}

func citations(hits []retriever.Hit) []types.Citation {
	out := make([]types.Citation, len(hits))
	for i, h := range hits {
		out[i] = types.Citation{
			DocumentID: h.Chunk.DocumentID,
			ChunkID:    h.Chunk.ID,
			Seq:        h.Chunk.Seq,
			StartRune:  h.Chunk.StartRune,
			EndRune:    h.Chunk.EndRune,
			Page:       h.Chunk.Page,
			Score:      h.Score,
		}
	}
	return out
}

// confidence blends the best retrieval similarity with the mean across
// the context hits. A model claim of insufficient evidence caps the
// score regardless of how similar the retrieved text looked.
func confidence(hits []retriever.Hit, insufficient bool) float64 {
	if len(hits) == 0 {
		return 0
	}
	top := hits[0].Score
	sum := 0.0
	for _, h := range hits {
		sum += h.Score
	}
	mean := sum / float64(len(hits))

	score := confidenceTopWeight*top + confidenceMeanWeight*mean
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	if insufficient && score > insufficientConfidence {
		score = insufficientConfidence
	}
	return score
}
