// Package analysis runs the clause catalogue over a ready document,
// recording per-type findings and derived risk flags.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/data/repos"
	types "github.com/contractsense/contractsense-backend/internal/domain"
	"github.com/contractsense/contractsense-backend/internal/pkg/envutil"
	"github.com/contractsense/contractsense-backend/internal/pkg/errors"
	"github.com/contractsense/contractsense-backend/internal/platform/logger"
	"github.com/contractsense/contractsense-backend/internal/rag/retriever"
)

const defaultParallelism = 3

// Retriever is the slice of the retrieval engine the analyzer uses.
type Retriever interface {
	Retrieve(ctx context.Context, tx *gorm.DB, userID string, documentID uuid.UUID, query string, k int) ([]retriever.Hit, error)
}

// Generator is the model-side slice of the OpenAI client.
type Generator interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
}

type Analyzer struct {
	log         *logger.Logger
	retriever   Retriever
	gen         Generator
	runs        repos.AnalysisRepo
	catalogue   []CatalogueEntry
	parallelism int
	perTypeK    int
}

type Option func(*Analyzer)

func WithParallelism(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.parallelism = n
		}
	}
}

func WithCatalogue(entries []CatalogueEntry) Option {
	return func(a *Analyzer) {
		if len(entries) > 0 {
			a.catalogue = entries
		}
	}
}

func New(log *logger.Logger, ret Retriever, gen Generator, runs repos.AnalysisRepo, opts ...Option) (*Analyzer, error) {
	catalogue, err := Catalogue()
	if err != nil {
		return nil, err
	}
	a := &Analyzer{
		log:         log.With("component", "analyzer"),
		retriever:   ret,
		gen:         gen,
		runs:        runs,
		catalogue:   catalogue,
		parallelism: envutil.Int("ANALYSIS_PARALLELISM", defaultParallelism),
		perTypeK:    envutil.Int("ANALYSIS_TOP_K", 4),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze runs every catalogue clause type against the document and
// persists one ContractAnalysis run. A single clause type failing does
// not abort the run; the type is recorded inconclusive and the run
// still completes. Context cancellation leaves the run marked canceled
// with whatever findings finished, never a torn half-state.
func (a *Analyzer) Analyze(ctx context.Context, tx *gorm.DB, userID string, documentID uuid.UUID) (*types.ContractAnalysis, error) {
	if documentID == uuid.Nil {
		return nil, errors.InvalidInput("analysis.Analyze", "document id is required")
	}

	run, err := a.runs.Create(ctx, tx, &types.ContractAnalysis{
		DocumentID: documentID,
		UserID:     userID,
		Status:     types.AnalysisPending,
	})
	if err != nil {
		return nil, err
	}
	if err := a.runs.UpdateFields(ctx, tx, run.ID, map[string]interface{}{
		"status": types.AnalysisRunning,
	}); err != nil {
		return nil, err
	}
	run.Status = types.AnalysisRunning

	findings := make([]types.ClauseFinding, len(a.catalogue))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, entry := range a.catalogue {
		i, entry := i, entry
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			findings[i] = a.analyzeClause(gctx, tx, userID, documentID, entry)
			return nil
		})
	}
	err = g.Wait()

	if err != nil || ctx.Err() != nil {
		// Only cancellation propagates out of the group; per-type
		// failures are folded into inconclusive findings. Clause types
		// that finished before the cancellation are still persisted.
		var done []types.ClauseFinding
		for _, f := range findings {
			if f.Type != "" {
				done = append(done, f)
			}
		}
		run.Status = types.AnalysisCanceled
		fields := map[string]interface{}{"status": types.AnalysisCanceled}
		if serr := run.SetFindings(done); serr != nil {
			a.log.Error("failed to encode partial findings", "analysis_id", run.ID, "error", serr)
		} else if serr := run.SetRiskFlags(a.riskFlags(done)); serr != nil {
			a.log.Error("failed to encode partial risk flags", "analysis_id", run.ID, "error", serr)
		} else {
			fields["findings"] = run.Findings
			fields["risk_flags"] = run.RiskFlags
			fields["total_clauses"] = run.TotalClauses
			fields["missing_count"] = run.MissingCount
			fields["high_risk_count"] = run.HighRiskCount
			fields["medium_risk_count"] = run.MediumRiskCount
			fields["low_risk_count"] = run.LowRiskCount
		}
		if uerr := a.runs.UpdateFields(context.WithoutCancel(ctx), tx, run.ID, fields); uerr != nil {
			a.log.Error("failed to mark analysis canceled", "analysis_id", run.ID, "error", uerr)
		}
		return run, err
	}

	if err := run.SetFindings(findings); err != nil {
		return nil, err
	}
	if err := run.SetRiskFlags(a.riskFlags(findings)); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	run.Status = types.AnalysisComplete
	run.CompletedAt = &now
	if err := a.runs.UpdateFields(ctx, tx, run.ID, map[string]interface{}{
		"status":            run.Status,
		"findings":          run.Findings,
		"risk_flags":        run.RiskFlags,
		"total_clauses":     run.TotalClauses,
		"missing_count":     run.MissingCount,
		"high_risk_count":   run.HighRiskCount,
		"medium_risk_count": run.MediumRiskCount,
		"low_risk_count":    run.LowRiskCount,
		"completed_at":      run.CompletedAt,
	}); err != nil {
		return nil, err
	}

	a.log.Info("analysis complete",
		"analysis_id", run.ID,
		"document_id", documentID,
		"identified", run.TotalClauses,
		"missing", run.MissingCount,
		"high_risk", run.HighRiskCount)
	return run, nil
}

// analyzeClause resolves one catalogue entry to identified, missing or
// inconclusive. It never returns an error; failure is a finding.
func (a *Analyzer) analyzeClause(ctx context.Context, tx *gorm.DB, userID string, documentID uuid.UUID, entry CatalogueEntry) types.ClauseFinding {
	hits, err := a.retriever.Retrieve(ctx, tx, userID, documentID, entry.Query, a.perTypeK)
	if err != nil {
		a.log.Warn("clause retrieval failed", "clause_type", entry.Type, "error", err)
		return types.ClauseFinding{
			Type:   entry.Type,
			Status: types.ClauseInconclusive,
			Note:   fmt.Sprintf("retrieval failed: %v", err),
		}
	}
	if len(hits) == 0 {
		return types.ClauseFinding{Type: entry.Type, Status: types.ClauseMissing}
	}

	var excerpts strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&excerpts, "[%d] %s\n\n", i+1, h.Chunk.Text)
	}
	out, err := a.gen.GenerateJSON(ctx, clauseSystemPrompt,
		clausePrompt(entry, excerpts.String()), "clause_finding", clauseSchema())
	if err != nil {
		a.log.Warn("clause extraction failed", "clause_type", entry.Type, "error", err)
		return types.ClauseFinding{
			Type:   entry.Type,
			Status: types.ClauseInconclusive,
			Note:   fmt.Sprintf("extraction failed: %v", err),
		}
	}

	present, _ := out["present"].(bool)
	if !present {
		return types.ClauseFinding{Type: entry.Type, Status: types.ClauseMissing}
	}

	finding := types.ClauseFinding{
		Type:   entry.Type,
		Status: types.ClauseIdentified,
	}
	finding.Text, _ = out["clause_text"].(string)
	finding.Summary, _ = out["summary"].(string)
	if risk, ok := out["risk"].(string); ok && types.RiskLevel(risk).Valid() {
		finding.Risk = types.RiskLevel(risk)
	} else {
		finding.Risk = types.RiskMedium
	}
	if num, ok := out["excerpt"].(float64); ok {
		idx := int(num) - 1
		if idx >= 0 && idx < len(hits) {
			ch := hits[idx].Chunk
			finding.ChunkID = ch.ID
			finding.Seq = ch.Seq
			finding.StartRune = ch.StartRune
			finding.EndRune = ch.EndRune
			finding.Page = ch.Page
		}
	}
	return finding
}

// riskFlags derives document-level flags: every high-risk identified
// clause and every missing catalogue type becomes one flag.
func (a *Analyzer) riskFlags(findings []types.ClauseFinding) []types.RiskFlag {
	severity := make(map[types.ClauseType]types.RiskLevel, len(a.catalogue))
	guidance := make(map[types.ClauseType]string, len(a.catalogue))
	for _, e := range a.catalogue {
		severity[e.Type] = e.MissingSeverity
		guidance[e.Type] = e.Description
	}

	var flags []types.RiskFlag
	for _, f := range findings {
		switch f.Status {
		case types.ClauseIdentified:
			if f.Risk == types.RiskHigh {
				flags = append(flags, types.RiskFlag{
					Type:        fmt.Sprintf("high_risk_%s", f.Type),
					Description: f.Summary,
					Severity:    types.RiskHigh,
				})
			}
		case types.ClauseMissing:
			sev := severity[f.Type]
			if sev == "" {
				sev = types.RiskMedium
			}
			flags = append(flags, types.RiskFlag{
				Type:           fmt.Sprintf("missing_%s", f.Type),
				Description:    fmt.Sprintf("No %s clause was found in the document.", f.Type),
				Severity:       sev,
				Recommendation: fmt.Sprintf("Review whether the contract should define: %s", guidance[f.Type]),
			})
		}
	}
	return flags
}
