package match

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/linyuchen/xunwu/internal/db"
	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

func seedUser(t *testing.T, database *sql.DB, username, role string) *model.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), database, username, "hash", role)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return user
}

func seedItem(t *testing.T, database *sql.DB, kind model.Kind, category, description, location string, occurredAt time.Time, userID int64) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), database, kind, category, description, location, occurredAt, userID)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func TestRunCreatesMatches(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)

	lost := seedItem(t, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", baseTime, alice.ID)
	found := seedItem(t, database, model.KindFound, "电子产品", "an iphone", "图书馆", baseTime.Add(24*time.Hour), bob.ID)

	matches, err := NewCoordinator(database).Run(ctx, lost)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.LostItemID != lost.ID || m.FoundItemID != found.ID {
		t.Errorf("wrong pair: (%d, %d)", m.LostItemID, m.FoundItemID)
	}
	if m.Score != 98 || m.Level != model.LevelHigh {
		t.Errorf("expected 98/high, got %d/%q", m.Score, m.Level)
	}
	if m.IsCompleted {
		t.Error("new match should not be completed")
	}
}

func TestRunFromFoundAnchor(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)

	lost := seedItem(t, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", baseTime, alice.ID)
	found := seedItem(t, database, model.KindFound, "电子产品", "black iphone", "图书馆", baseTime.Add(24*time.Hour), bob.ID)

	// Anchoring on the found item must produce the same orientation.
	matches, err := NewCoordinator(database).Run(ctx, found)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].LostItemID != lost.ID || matches[0].FoundItemID != found.ID {
		t.Errorf("wrong orientation: (%d, %d)", matches[0].LostItemID, matches[0].FoundItemID)
	}
}

func TestRunRepeatedKeepsMatchIdentity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)

	lost := seedItem(t, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", baseTime, alice.ID)
	seedItem(t, database, model.KindFound, "电子产品", "an iphone", "图书馆", baseTime.Add(24*time.Hour), bob.ID)

	coordinator := NewCoordinator(database)

	first, err := coordinator.Run(ctx, lost)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := coordinator.Run(ctx, lost)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 match per run, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("rerun replaced the match row: ids %d and %d", first[0].ID, second[0].ID)
	}
	if first[0].Score != second[0].Score {
		t.Errorf("rerun changed the score: %d and %d", first[0].Score, second[0].Score)
	}
}

func TestRunSkipsUnrelatedItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)

	lost := seedItem(t, database, model.KindLost, "衣物配件", "umbrella", "图书馆", baseTime, alice.ID)
	seedItem(t, database, model.KindFound, "电子产品", "textbook", "食堂", baseTime.Add(30*24*time.Hour), bob.ID)

	matches, err := NewCoordinator(database).Run(ctx, lost)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestConfirmByParticipant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)

	lost := seedItem(t, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", baseTime, alice.ID)
	seedItem(t, database, model.KindFound, "电子产品", "an iphone", "图书馆", baseTime.Add(24*time.Hour), bob.ID)

	coordinator := NewCoordinator(database)
	matches, err := coordinator.Run(ctx, lost)
	if err != nil || len(matches) != 1 {
		t.Fatalf("Run: %v (%d matches)", err, len(matches))
	}

	m, err := coordinator.Confirm(ctx, matches[0].ID, bob.ID, model.RoleUser)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !m.IsCompleted {
		t.Error("expected match to be completed")
	}
	if m.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}

	// Confirming again is a no-op.
	again, err := coordinator.Confirm(ctx, matches[0].ID, alice.ID, model.RoleUser)
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if !again.IsCompleted {
		t.Error("expected match to stay completed")
	}
}

func TestConfirmRequiresParticipantOrAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)
	carol := seedUser(t, database, "carol", model.RoleUser)
	admin := seedUser(t, database, "root", model.RoleAdmin)

	lost := seedItem(t, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", baseTime, alice.ID)
	seedItem(t, database, model.KindFound, "电子产品", "an iphone", "图书馆", baseTime.Add(24*time.Hour), bob.ID)

	coordinator := NewCoordinator(database)
	matches, err := coordinator.Run(ctx, lost)
	if err != nil || len(matches) != 1 {
		t.Fatalf("Run: %v (%d matches)", err, len(matches))
	}

	if _, err := coordinator.Confirm(ctx, matches[0].ID, carol.ID, model.RoleUser); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant for outsider, got %v", err)
	}

	// An admin may confirm on behalf of the participants.
	if _, err := coordinator.Confirm(ctx, matches[0].ID, admin.ID, model.RoleAdmin); err != nil {
		t.Errorf("admin Confirm: %v", err)
	}
}

func TestConfirmMissingMatch(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := NewCoordinator(database).Confirm(context.Background(), 9999, 1, model.RoleUser)
	if !errors.Is(err, ErrMatchNotFound) {
		t.Errorf("expected ErrMatchNotFound, got %v", err)
	}
}

func TestConfirmedMatchSurvivesRerun(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)

	lost := seedItem(t, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", baseTime, alice.ID)
	seedItem(t, database, model.KindFound, "电子产品", "an iphone", "图书馆", baseTime.Add(24*time.Hour), bob.ID)

	coordinator := NewCoordinator(database)
	matches, err := coordinator.Run(ctx, lost)
	if err != nil || len(matches) != 1 {
		t.Fatalf("Run: %v (%d matches)", err, len(matches))
	}
	if _, err := coordinator.Confirm(ctx, matches[0].ID, alice.ID, model.RoleUser); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	rerun, err := coordinator.Run(ctx, lost)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if len(rerun) != 1 {
		t.Fatalf("expected 1 match after rerun, got %d", len(rerun))
	}
	if !rerun[0].IsCompleted {
		t.Error("rerun must not reopen a confirmed match")
	}
	if rerun[0].ID != matches[0].ID {
		t.Errorf("rerun replaced the confirmed match: ids %d and %d", rerun[0].ID, matches[0].ID)
	}
}

func TestDeletedItemLeavesMatching(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := seedUser(t, database, "alice", model.RoleUser)
	bob := seedUser(t, database, "bob", model.RoleUser)

	lost := seedItem(t, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", baseTime, alice.ID)
	found := seedItem(t, database, model.KindFound, "电子产品", "an iphone", "图书馆", baseTime.Add(24*time.Hour), bob.ID)

	coordinator := NewCoordinator(database)
	if _, err := coordinator.Run(ctx, lost); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := store.DeleteItem(ctx, database, found.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	remaining, err := store.ListMatchesForLost(ctx, database, lost.ID)
	if err != nil {
		t.Fatalf("ListMatchesForLost: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected matches removed with the item, got %d", len(remaining))
	}

	// A fresh run sees no candidates left.
	matches, err := coordinator.Run(ctx, lost)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches against a deleted item, got %d", len(matches))
	}
}
