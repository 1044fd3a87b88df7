package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linyuchen/xunwu/internal/model"
)

const itemColumns = `i.id, i.kind, i.category, i.description, i.location,
	        i.occurred_at, i.user_id, i.image_mime, i.created_at, i.deleted_at,
	        COALESCE(u.username, '')`

// CreateItem records a new lost or found report.
func CreateItem(ctx context.Context, db *sql.DB, kind model.Kind, category, description, location string, occurredAt time.Time, userID int64) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (kind, category, description, location, occurred_at, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		kind, category, description, location, occurredAt, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, including soft-deleted ones.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i LEFT JOIN users u ON u.id = i.user_id
		 WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all non-deleted items of a kind, newest occurrence
// first, optionally filtered by category.
func ListItems(ctx context.Context, db *sql.DB, kind model.Kind, category string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + `
	          FROM items i LEFT JOIN users u ON u.id = i.user_id
	          WHERE i.deleted_at IS NULL AND i.kind = ?`
	args := []any{kind}

	if category != "" {
		query += ` AND i.category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY i.occurred_at DESC, i.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListCandidates returns all non-deleted items of the kind opposite to
// anchorKind, from every user, in ascending id order. The stable order
// keeps matching runs reproducible.
func ListCandidates(ctx context.Context, db *sql.DB, anchorKind model.Kind) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i LEFT JOIN users u ON u.id = i.user_id
		 WHERE i.deleted_at IS NULL AND i.kind = ?
		 ORDER BY i.id ASC`, anchorKind.Opposite(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// DeleteItem soft-deletes an item and removes its match results.
// Messages attached to those matches go away via the FK cascade.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM match_results WHERE lost_item_id = ? OR found_item_id = ?`,
		id, id,
	)
	if err != nil {
		return fmt.Errorf("deleting item matches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item deletion: %w", err)
	}
	return nil
}

// SetItemImage sets an item's photo data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ? WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's photo data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var imageMime sql.NullString
	err := row.Scan(&item.ID, &item.Kind, &item.Category, &item.Description, &item.Location,
		&item.OccurredAt, &item.UserID, &imageMime, &item.CreatedAt, &item.DeletedAt,
		&item.ReporterName)
	if err != nil {
		return nil, err
	}
	item.ImageMime = imageMime.String
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
