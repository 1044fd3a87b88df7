package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linyuchen/xunwu/internal/model"
)

const matchColumns = `m.id, m.lost_item_id, m.found_item_id, m.score, m.level, m.reason,
	        m.is_completed, m.completed_at, m.created_at, m.updated_at,
	        li.category, li.description, li.user_id,
	        fi.category, fi.description, fi.user_id`

const matchJoins = ` FROM match_results m
	 JOIN items li ON li.id = m.lost_item_id
	 JOIN items fi ON fi.id = m.found_item_id`

// matchOrder sorts open matches before confirmed ones, strongest first.
// The id tie-break keeps listings deterministic across runs.
const matchOrder = ` ORDER BY m.is_completed ASC, m.score DESC, m.updated_at DESC, m.id ASC`

// UpsertMatch creates or refreshes the match result for a (lost, found)
// pair. The write is a single conditional statement backed by the unique
// pair constraint, so concurrent runs on the same pair serialize on the
// row: a confirmed match is never overwritten, and an unconfirmed one is
// updated in place, keeping its id (and any messages attached to it).
func UpsertMatch(ctx context.Context, db *sql.DB, lostID, foundID int64, score int, level model.Level, reason string) (*model.Match, error) {
	_, err := db.ExecContext(ctx,
		`INSERT INTO match_results (lost_item_id, found_item_id, score, level, reason)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (lost_item_id, found_item_id) DO UPDATE
		 SET score = excluded.score, level = excluded.level, reason = excluded.reason,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE match_results.is_completed = 0`,
		lostID, foundID, score, level, reason,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting match: %w", err)
	}

	return GetMatchByPair(ctx, db, lostID, foundID)
}

// GetMatch returns a match by ID with both items' display fields joined in.
func GetMatch(ctx context.Context, db *sql.DB, id int64) (*model.Match, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+matchColumns+matchJoins+` WHERE m.id = ?`, id,
	)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match: %w", err)
	}
	return m, nil
}

// GetMatchByPair returns the match for a (lost, found) pair, if any.
func GetMatchByPair(ctx context.Context, db *sql.DB, lostID, foundID int64) (*model.Match, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+matchColumns+matchJoins+` WHERE m.lost_item_id = ? AND m.found_item_id = ?`,
		lostID, foundID,
	)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match by pair: %w", err)
	}
	return m, nil
}

// CompleteMatch marks a match as confirmed. Already confirmed matches
// keep their original completed_at.
func CompleteMatch(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE match_results
		 SET is_completed = 1, completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND is_completed = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("completing match: %w", err)
	}
	return nil
}

// ListMatchesForLost returns all matches referencing a lost item.
func ListMatchesForLost(ctx context.Context, db *sql.DB, lostID int64) ([]model.Match, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+` WHERE m.lost_item_id = ?`+matchOrder, lostID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches for lost item: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// ListMatchesForFound returns all matches referencing a found item.
func ListMatchesForFound(ctx context.Context, db *sql.DB, foundID int64) ([]model.Match, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+` WHERE m.found_item_id = ?`+matchOrder, foundID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches for found item: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// RecentMatches returns the newest match suggestions across all items.
func RecentMatches(ctx context.Context, db *sql.DB, limit int) ([]model.Match, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+matchOrder+` LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent matches: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// MatchesForUser returns matches where the user owns either item.
func MatchesForUser(ctx context.Context, db *sql.DB, userID int64, limit int) ([]model.Match, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+matchColumns+matchJoins+
			` WHERE li.user_id = ? OR fi.user_id = ?`+matchOrder+` LIMIT ?`,
		userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing matches for user: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

func scanMatch(row rowScanner) (*model.Match, error) {
	m := &model.Match{}
	err := row.Scan(&m.ID, &m.LostItemID, &m.FoundItemID, &m.Score, &m.Level, &m.Reason,
		&m.IsCompleted, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt,
		&m.LostCategory, &m.LostDescription, &m.LostUserID,
		&m.FoundCategory, &m.FoundDescription, &m.FoundUserID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanMatches(rows *sql.Rows) ([]model.Match, error) {
	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}
