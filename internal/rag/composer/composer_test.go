package composer

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/rag/retriever"
)

type spyGenerator struct {
	calls      int
	lastSystem string
	lastUser   string
	lastSchema string
	out        map[string]any
	err        error
}

func (s *spyGenerator) GenerateJSON(_ context.Context, system, user, schemaName string, _ map[string]any) (map[string]any, error) {
	s.calls++
	s.lastSystem = system
	s.lastUser = user
	s.lastSchema = schemaName
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func newTestComposer(t *testing.T, gen *spyGenerator, opts ...Option) *Composer {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return New(log, gen, opts...)
}

func hit(seq int, score float64, text string) retriever.Hit {
	return retriever.Hit{
		Chunk: &types.Chunk{
			ID:         uuid.New(),
			DocumentID: uuid.New(),
			Seq:        seq,
			Text:       text,
			StartRune:  seq * 100,
			EndRune:    seq*100 + len([]rune(text)),
		},
		Score: score,
	}
}

func TestComposeNoEvidenceShortCircuits(t *testing.T) {
	gen := &spyGenerator{}
	c := newTestComposer(t, gen)

	resp, err := c.Compose(context.Background(), "what is the notice period?", nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("model called %d times on empty evidence, want 0", gen.calls)
	}
	if resp.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", resp.Confidence)
	}
	if len(resp.CitationList()) != 0 {
		t.Fatal("expected no citations")
	}
	if resp.FailureKind != "" {
		t.Fatalf("no-evidence is a healthy outcome, FailureKind = %q", resp.FailureKind)
	}
	if resp.Answer == "" {
		t.Fatal("expected a fixed no-evidence answer")
	}
}

func TestComposeHealthyAnswerWithCitations(t *testing.T) {
	gen := &spyGenerator{out: map[string]any{
		"answer":                "Either party may terminate with 30 days written notice.",
		"cited_chunks":          []any{float64(1)},
		"insufficient_evidence": false,
	}}
	c := newTestComposer(t, gen)

	hits := []retriever.Hit{
		hit(3, 0.9, "Either party may terminate this agreement upon 30 days written notice."),
		hit(7, 0.5, "Invoices are payable within 15 days."),
	}
	resp, err := c.Compose(context.Background(), "how can the contract be terminated?", hits)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("model calls = %d, want 1", gen.calls)
	}
	if gen.lastSchema != "answer" {
		t.Fatalf("schema name = %q", gen.lastSchema)
	}
	if !strings.Contains(gen.lastUser, "[1]") || !strings.Contains(gen.lastUser, "[2]") {
		t.Fatal("prompt should number the excerpts")
	}

	cs := resp.CitationList()
	if len(cs) != 1 {
		t.Fatalf("citations = %d, want 1", len(cs))
	}
	if cs[0].ChunkID != hits[0].Chunk.ID || cs[0].Seq != 3 {
		t.Fatal("citation does not point at the cited chunk")
	}
	want := 0.65*0.9 + 0.35*(0.9+0.5)/2
	if math.Abs(resp.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", resp.Confidence, want)
	}
	if resp.FailureKind != "" {
		t.Fatalf("FailureKind = %q, want empty", resp.FailureKind)
	}
}

func TestComposeInsufficientEvidenceCapsConfidence(t *testing.T) {
	gen := &spyGenerator{out: map[string]any{
		"answer":                "The excerpts do not state the penalty amount.",
		"cited_chunks":          []any{},
		"insufficient_evidence": true,
	}}
	c := newTestComposer(t, gen)

	resp, err := c.Compose(context.Background(), "what is the penalty?", []retriever.Hit{
		hit(0, 0.95, "Some unrelated but similar-looking clause."),
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if resp.Confidence > 0.25 {
		t.Fatalf("confidence = %v, want <= 0.25 under insufficient evidence", resp.Confidence)
	}
}

func TestComposeModelFailureDegradesToNoAnswer(t *testing.T) {
	gen := &spyGenerator{err: errors.External("openai.do", "retries exhausted", true, nil)}
	c := newTestComposer(t, gen)

	resp, err := c.Compose(context.Background(), "what is the SLA?", []retriever.Hit{
		hit(0, 0.8, "Repairs completed within 48 hours."),
	})
	if err != nil {
		t.Fatalf("degraded response should not be an error: %v", err)
	}
	if resp.FailureKind != string(errors.KindExternalService) {
		t.Fatalf("FailureKind = %q, want %q", resp.FailureKind, errors.KindExternalService)
	}
	if resp.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", resp.Confidence)
	}
	if len(resp.CitationList()) != 0 {
		t.Fatal("degraded response must not carry citations")
	}
}

func TestComposeDropsWholeChunksPastBudget(t *testing.T) {
	gen := &spyGenerator{out: map[string]any{
		"answer":                "ok",
		"cited_chunks":          []any{float64(1)},
		"insufficient_evidence": false,
	}}
	c := newTestComposer(t, gen, WithContextBudget(120))

	long := strings.Repeat("x", 100)
	hits := []retriever.Hit{
		hit(0, 0.9, long),
		hit(1, 0.8, long),
		hit(2, 0.7, long),
	}
	if _, err := c.Compose(context.Background(), "q?", hits); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(gen.lastUser, "[2]") {
		t.Fatal("lower-ranked chunk should have been dropped, not sent")
	}
	if !strings.Contains(gen.lastUser, long) {
		t.Fatal("kept chunk must be sent whole, never truncated")
	}
}

func TestComposeIgnoresOutOfRangeRefs(t *testing.T) {
	gen := &spyGenerator{out: map[string]any{
		"answer":                "Payment is due in 30 days.",
		"cited_chunks":          []any{float64(0), float64(9), float64(1), float64(1)},
		"insufficient_evidence": false,
	}}
	c := newTestComposer(t, gen)

	resp, err := c.Compose(context.Background(), "payment terms?", []retriever.Hit{
		hit(0, 0.9, "Payment due within 30 days of invoice."),
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(resp.CitationList()) != 1 {
		t.Fatalf("citations = %d, want 1 (dedup + range check)", len(resp.CitationList()))
	}
}

func TestComposeSpecializesPromptByIntent(t *testing.T) {
	gen := &spyGenerator{out: map[string]any{
		"answer":                "Multa de 10% do valor mensal.",
		"cited_chunks":          []any{float64(1)},
		"insufficient_evidence": false,
	}}
	c := newTestComposer(t, gen)
	hits := []retriever.Hit{hit(0, 0.9, "Multa de dez por cento do valor mensal.")}

	resp, err := c.Compose(context.Background(), "Qual o valor da multa por descumprimento?", hits)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(gen.lastSystem, "Special focus") || !strings.Contains(gen.lastSystem, "penalties") {
		t.Fatal("penalty question should carry the penalty focus hint")
	}
	in := resp.IntentView()
	if in == nil || in.Kind != types.IntentPenalty {
		t.Fatalf("intent = %+v, want penalty", in)
	}
	if in.Form != types.FormWhat {
		t.Fatalf("form = %s, want what", in.Form)
	}

	gen.out["answer"] = "O contrato vale por cinco anos."
	if _, err := c.Compose(context.Background(), "resuma o contrato", hits); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(gen.lastSystem, "Special focus") {
		t.Fatal("general question must use the base prompt unchanged")
	}
}

func TestComposeRecordsIntentOnEveryPath(t *testing.T) {
	gen := &spyGenerator{err: errors.External("openai.do", "retries exhausted", true, nil)}
	c := newTestComposer(t, gen)

	resp, err := c.Compose(context.Background(), "Qual a vigência do contrato?", nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	in := resp.IntentView()
	if in == nil || in.Kind != types.IntentDuration {
		t.Fatalf("no-evidence intent = %+v, want duration", in)
	}

	resp, err = c.Compose(context.Background(), "Qual a vigência do contrato?", []retriever.Hit{
		hit(0, 0.8, "A vigência é de cinco anos."),
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if resp.FailureKind == "" {
		t.Fatal("expected a degraded response")
	}
	in = resp.IntentView()
	if in == nil || in.Kind != types.IntentDuration {
		t.Fatalf("degraded intent = %+v, want duration", in)
	}
}

func TestConfidenceClampedToUnitInterval(t *testing.T) {
	hits := []retriever.Hit{hit(0, 1.0, "a"), hit(1, 1.0, "b")}
	if got := confidence(hits, false); got > 1 {
		t.Fatalf("confidence = %v, want <= 1", got)
	}
	if got := confidence(nil, false); got != 0 {
		t.Fatalf("confidence of no hits = %v, want 0", got)
	}
}
