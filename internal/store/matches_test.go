package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/linyuchen/xunwu/internal/db"
	"github.com/linyuchen/xunwu/internal/model"
)

// matchPair creates a lost/found item pair owned by two distinct users.
func matchPair(t *testing.T, database *sql.DB) (lost, found *model.Item) {
	t.Helper()
	ctx := context.Background()

	alice := testUser(t, database, "alice")
	bob := testUser(t, database, "bob")

	lost, err := CreateItem(ctx, database, model.KindLost, "电子产品", "black iphone 13", "图书馆", testOccurredAt, alice.ID)
	if err != nil {
		t.Fatalf("CreateItem(lost): %v", err)
	}
	found, err = CreateItem(ctx, database, model.KindFound, "电子产品", "an iphone", "图书馆", testOccurredAt, bob.ID)
	if err != nil {
		t.Fatalf("CreateItem(found): %v", err)
	}
	return lost, found
}

func TestUpsertMatchInsertThenUpdate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := matchPair(t, database)

	m1, err := UpsertMatch(ctx, database, lost.ID, found.ID, 98, model.LevelHigh, "first")
	if err != nil {
		t.Fatalf("first UpsertMatch: %v", err)
	}
	if m1.Score != 98 || m1.IsCompleted {
		t.Errorf("unexpected first match: %+v", m1)
	}

	m2, err := UpsertMatch(ctx, database, lost.ID, found.ID, 75, model.LevelMedium, "second")
	if err != nil {
		t.Fatalf("second UpsertMatch: %v", err)
	}
	if m2.ID != m1.ID {
		t.Errorf("upsert must keep the row id: %d and %d", m1.ID, m2.ID)
	}
	if m2.Score != 75 || m2.Level != model.LevelMedium || m2.Reason != "second" {
		t.Errorf("expected refreshed fields, got %+v", m2)
	}
}

func TestUpsertMatchRespectsConfirmed(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := matchPair(t, database)

	m, err := UpsertMatch(ctx, database, lost.ID, found.ID, 98, model.LevelHigh, "original")
	if err != nil {
		t.Fatalf("UpsertMatch: %v", err)
	}
	if err := CompleteMatch(ctx, database, m.ID); err != nil {
		t.Fatalf("CompleteMatch: %v", err)
	}

	// A later run with a worse score must not touch the confirmed row.
	after, err := UpsertMatch(ctx, database, lost.ID, found.ID, 55, model.LevelLow, "rescored")
	if err != nil {
		t.Fatalf("UpsertMatch after confirm: %v", err)
	}
	if after.ID != m.ID {
		t.Errorf("confirmed match replaced: ids %d and %d", m.ID, after.ID)
	}
	if after.Score != 98 || after.Level != model.LevelHigh || after.Reason != "original" {
		t.Errorf("confirmed match modified: %+v", after)
	}
	if !after.IsCompleted {
		t.Error("expected match to stay completed")
	}
}

func TestCompleteMatchIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := matchPair(t, database)
	m, _ := UpsertMatch(ctx, database, lost.ID, found.ID, 98, model.LevelHigh, "reason")

	if err := CompleteMatch(ctx, database, m.ID); err != nil {
		t.Fatalf("first CompleteMatch: %v", err)
	}
	if err := CompleteMatch(ctx, database, m.ID); err != nil {
		t.Fatalf("second CompleteMatch: %v", err)
	}

	got, _ := GetMatch(ctx, database, m.ID)
	if got == nil || !got.IsCompleted || got.CompletedAt == nil {
		t.Errorf("unexpected match after double complete: %+v", got)
	}
}

func TestGetMatchByPair(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := matchPair(t, database)

	missing, err := GetMatchByPair(ctx, database, lost.ID, found.ID)
	if err != nil {
		t.Fatalf("GetMatchByPair: %v", err)
	}
	if missing != nil {
		t.Error("expected nil before upsert")
	}

	UpsertMatch(ctx, database, lost.ID, found.ID, 98, model.LevelHigh, "reason")

	got, err := GetMatchByPair(ctx, database, lost.ID, found.ID)
	if err != nil {
		t.Fatalf("GetMatchByPair: %v", err)
	}
	if got == nil {
		t.Fatal("expected match, got nil")
	}
	if got.LostCategory != "电子产品" || got.FoundDescription != "an iphone" {
		t.Errorf("expected joined item fields, got %+v", got)
	}
}

func TestMatchListingOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := testUser(t, database, "alice")
	bob := testUser(t, database, "bob")

	lost, _ := CreateItem(ctx, database, model.KindLost, "电子产品", "phone", "图书馆", testOccurredAt, alice.ID)
	f1, _ := CreateItem(ctx, database, model.KindFound, "电子产品", "phone one", "图书馆", testOccurredAt, bob.ID)
	f2, _ := CreateItem(ctx, database, model.KindFound, "电子产品", "phone two", "图书馆", testOccurredAt, bob.ID)

	confirmed, _ := UpsertMatch(ctx, database, lost.ID, f1.ID, 98, model.LevelHigh, "strong")
	UpsertMatch(ctx, database, lost.ID, f2.ID, 55, model.LevelLow, "weak")
	CompleteMatch(ctx, database, confirmed.ID)

	matches, err := ListMatchesForLost(ctx, database, lost.ID)
	if err != nil {
		t.Fatalf("ListMatchesForLost: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	// Open matches come first, even when a confirmed one scores higher.
	if matches[0].IsCompleted || matches[0].Score != 55 {
		t.Errorf("expected the open match first, got %+v", matches[0])
	}
	if !matches[1].IsCompleted {
		t.Errorf("expected the confirmed match last, got %+v", matches[1])
	}
}

func TestMatchesForUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := matchPair(t, database)
	carol := testUser(t, database, "carol")

	UpsertMatch(ctx, database, lost.ID, found.ID, 98, model.LevelHigh, "reason")

	mine, err := MatchesForUser(ctx, database, lost.UserID, 10)
	if err != nil {
		t.Fatalf("MatchesForUser: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 match for the lost item owner, got %d", len(mine))
	}

	theirs, _ := MatchesForUser(ctx, database, found.UserID, 10)
	if len(theirs) != 1 {
		t.Errorf("expected 1 match for the found item owner, got %d", len(theirs))
	}

	none, _ := MatchesForUser(ctx, database, carol.ID, 10)
	if len(none) != 0 {
		t.Errorf("expected no matches for an uninvolved user, got %d", len(none))
	}
}
