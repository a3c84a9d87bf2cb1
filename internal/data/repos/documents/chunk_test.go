package documents

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/contractsense/contractsense-backend/internal/data/repos/testutil"
	types "github.com/contractsense/contractsense-backend/internal/domain"
)

func TestChunkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	docRepo := NewDocumentRepo(db, testutil.Logger(t))
	repo := NewChunkRepo(db, testutil.Logger(t))

	doc, err := docRepo.Create(ctx, tx, &types.Document{
		UserID:     "user-1",
		Filename:   "contract.txt",
		StorageKey: "user-1/contract.txt",
		MediaType:  types.MediaTypeTXT,
		ByteSize:   64,
	})
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}

	chunks := []*types.Chunk{
		{DocumentID: doc.ID, Seq: 1, Text: "second", StartRune: 800, EndRune: 1600},
		{DocumentID: doc.ID, Seq: 0, Text: "first", StartRune: 0, EndRune: 1000},
	}
	if _, err := repo.Create(ctx, tx, chunks); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.GetByDocumentID(ctx, tx, doc.ID)
	if err != nil {
		t.Fatalf("GetByDocumentID: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d chunks, want 2", len(rows))
	}
	if rows[0].Seq != 0 || rows[1].Seq != 1 {
		t.Fatalf("chunks not ordered by seq: %d, %d", rows[0].Seq, rows[1].Seq)
	}

	byIDs, err := repo.GetByIDs(ctx, tx, []uuid.UUID{chunks[0].ID})
	if err != nil || len(byIDs) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(byIDs))
	}

	if err := repo.DeleteByDocumentID(ctx, tx, doc.ID); err != nil {
		t.Fatalf("DeleteByDocumentID: %v", err)
	}
	rows, err = repo.GetByDocumentID(ctx, tx, doc.ID)
	if err != nil || len(rows) != 0 {
		t.Fatalf("expected no chunks after delete: err=%v len=%d", err, len(rows))
	}
}
