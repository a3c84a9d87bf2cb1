package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contractsense/contractsense-backend/internal/data/repos/testutil"
	types "github.com/contractsense/contractsense-backend/internal/domain"
)

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewDocumentRepo(db, testutil.Logger(t))

	doc := &types.Document{
		UserID:      "user-1",
		Filename:    "contract.pdf",
		StorageKey:  "user-1/contract.pdf",
		MediaType:   types.MediaTypePDF,
		ByteSize:    1024,
		ContentHash: "hash-abc",
	}
	created, err := repo.Create(ctx, tx, doc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if created.Status != types.DocumentStatusUploaded {
		t.Fatalf("status = %s, want uploaded", created.Status)
	}

	got, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Filename != "contract.pdf" {
		t.Fatalf("filename = %q", got.Filename)
	}

	byHash, err := repo.GetByContentHash(ctx, tx, "user-1", "hash-abc")
	if err != nil {
		t.Fatalf("GetByContentHash: %v", err)
	}
	if byHash.ID != created.ID {
		t.Fatalf("hash lookup returned %s, want %s", byHash.ID, created.ID)
	}
	if _, err := repo.GetByContentHash(ctx, tx, "other-user", "hash-abc"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("hash lookup across users should miss, got %v", err)
	}

	err = repo.UpdateFields(ctx, tx, created.ID, map[string]interface{}{
		"status":      types.DocumentStatusProcessing,
		"chunk_count": 4,
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Status != types.DocumentStatusProcessing || got.ChunkCount != 4 {
		t.Fatalf("update not applied: status=%s chunks=%d", got.Status, got.ChunkCount)
	}

	list, err := repo.ListByUserID(ctx, tx, "user-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByUserID: err=%v len=%d", err, len(list))
	}

	if err := repo.Delete(ctx, tx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, tx, created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestListReadyByUserIDFiltersStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewDocumentRepo(db, testutil.Logger(t))

	seed := func(name, hash string, status types.DocumentStatus) uuid.UUID {
		doc := &types.Document{
			UserID:      "user-1",
			Filename:    name,
			StorageKey:  "user-1/" + name,
			MediaType:   types.MediaTypeTXT,
			ByteSize:    10,
			ContentHash: hash,
		}
		created, err := repo.Create(ctx, tx, doc)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if status != types.DocumentStatusUploaded {
			if err := repo.UpdateFields(ctx, tx, created.ID, map[string]interface{}{"status": status}); err != nil {
				t.Fatalf("UpdateFields %s: %v", name, err)
			}
		}
		return created.ID
	}

	readyID := seed("a.txt", "hash-a", types.DocumentStatusReady)
	seed("b.txt", "hash-b", types.DocumentStatusProcessing)
	seed("c.txt", "hash-c", types.DocumentStatusError)

	ready, err := repo.ListReadyByUserID(ctx, tx, "user-1")
	if err != nil {
		t.Fatalf("ListReadyByUserID: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != readyID {
		t.Fatalf("ready list = %d docs, want just %s", len(ready), readyID)
	}

	other, err := repo.ListReadyByUserID(ctx, tx, "user-2")
	if err != nil || len(other) != 0 {
		t.Fatalf("foreign user list: err=%v len=%d", err, len(other))
	}
}
