package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linyuchen/xunwu/internal/model"
)

// CreateMessage appends a message to a match's conversation.
func CreateMessage(ctx context.Context, db *sql.DB, matchID, senderID int64, content string) (*model.Message, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO messages (match_id, sender_id, content) VALUES (?, ?, ?)`,
		matchID, senderID, content,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting message id: %w", err)
	}

	msg := &model.Message{}
	err = db.QueryRowContext(ctx,
		`SELECT msg.id, msg.match_id, msg.sender_id, msg.content, msg.created_at,
		        COALESCE(u.username, '')
		 FROM messages msg LEFT JOIN users u ON u.id = msg.sender_id
		 WHERE msg.id = ?`, id,
	).Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Content, &msg.CreatedAt, &msg.SenderName)
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a match's conversation in chronological order.
func ListMessages(ctx context.Context, db *sql.DB, matchID int64) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT msg.id, msg.match_id, msg.sender_id, msg.content, msg.created_at,
		        COALESCE(u.username, '')
		 FROM messages msg LEFT JOIN users u ON u.id = msg.sender_id
		 WHERE msg.match_id = ?
		 ORDER BY msg.created_at ASC, msg.id ASC`, matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Content, &msg.CreatedAt, &msg.SenderName); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
