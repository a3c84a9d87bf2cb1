package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/contractsense/contractsense-backend/internal/data/repos/testutil"
	types "github.com/contractsense/contractsense-backend/internal/domain"
)

func TestAnalysisRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAnalysisRepo(db, testutil.Logger(t))

	docID := uuid.New()
	run, err := repo.Create(ctx, tx, &types.ContractAnalysis{
		DocumentID: docID,
		UserID:     "user-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.Status != types.AnalysisPending {
		t.Fatalf("status = %s, want pending", run.Status)
	}

	findings := []types.ClauseFinding{
		{Type: types.ClauseTermination, Status: types.ClauseIdentified, Risk: types.RiskHigh, Text: "clause text"},
		{Type: types.ClauseSLA, Status: types.ClauseMissing},
	}
	if err := run.SetFindings(findings); err != nil {
		t.Fatalf("SetFindings: %v", err)
	}
	now := time.Now().UTC()
	err = repo.UpdateFields(ctx, tx, run.ID, map[string]interface{}{
		"status":          types.AnalysisComplete,
		"findings":        run.Findings,
		"total_clauses":   run.TotalClauses,
		"missing_count":   run.MissingCount,
		"high_risk_count": run.HighRiskCount,
		"completed_at":    &now,
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	latest, err := repo.GetLatestByDocumentID(ctx, tx, docID)
	if err != nil {
		t.Fatalf("GetLatestByDocumentID: %v", err)
	}
	if latest.Status != types.AnalysisComplete {
		t.Fatalf("status = %s, want complete", latest.Status)
	}
	if latest.TotalClauses != 1 || latest.MissingCount != 1 || latest.HighRiskCount != 1 {
		t.Fatalf("counters wrong: %+v", latest)
	}
	missing := latest.MissingTypes()
	if len(missing) != 1 || missing[0] != types.ClauseSLA {
		t.Fatalf("missing types = %v", missing)
	}
}

func TestAnalysisLatestPrefersNewerRun(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAnalysisRepo(db, testutil.Logger(t))

	docID := uuid.New()
	older := &types.ContractAnalysis{
		DocumentID: docID,
		UserID:     "user-1",
		StartedAt:  time.Now().UTC().Add(-time.Hour),
	}
	if _, err := repo.Create(ctx, tx, older); err != nil {
		t.Fatalf("Create older: %v", err)
	}
	newer := &types.ContractAnalysis{
		DocumentID: docID,
		UserID:     "user-1",
		StartedAt:  time.Now().UTC(),
	}
	if _, err := repo.Create(ctx, tx, newer); err != nil {
		t.Fatalf("Create newer: %v", err)
	}

	latest, err := repo.GetLatestByDocumentID(ctx, tx, docID)
	if err != nil {
		t.Fatalf("GetLatestByDocumentID: %v", err)
	}
	if latest.ID != newer.ID {
		t.Fatalf("latest = %s, want %s", latest.ID, newer.ID)
	}
}
