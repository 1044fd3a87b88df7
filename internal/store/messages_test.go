package store

import (
	"context"
	"testing"

	"github.com/linyuchen/xunwu/internal/db"
	"github.com/linyuchen/xunwu/internal/model"
)

func TestCreateAndListMessages(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := matchPair(t, database)
	m, _ := UpsertMatch(ctx, database, lost.ID, found.ID, 98, model.LevelHigh, "reason")

	msg, err := CreateMessage(ctx, database, m.ID, lost.UserID, "是你捡到我的手机吗？")
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if msg.SenderName != "alice" {
		t.Errorf("expected sender 'alice', got %q", msg.SenderName)
	}

	if _, err := CreateMessage(ctx, database, m.ID, found.UserID, "对，在图书馆三楼"); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	messages, err := ListMessages(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "是你捡到我的手机吗？" {
		t.Errorf("expected chronological order, got %q first", messages[0].Content)
	}
}

func TestMessagesRemovedWithItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	lost, found := matchPair(t, database)
	m, _ := UpsertMatch(ctx, database, lost.ID, found.ID, 98, model.LevelHigh, "reason")
	CreateMessage(ctx, database, m.ID, lost.UserID, "hello")

	// Deleting an item removes its matches, and the FK cascade takes the
	// conversation with them.
	if err := DeleteItem(ctx, database, lost.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	messages, err := ListMessages(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected messages removed with the match, got %d", len(messages))
	}
}
