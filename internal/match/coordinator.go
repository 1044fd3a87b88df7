package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linyuchen/xunwu/internal/model"
	"github.com/linyuchen/xunwu/internal/store"
)

// Coordinator errors.
var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrNotParticipant = errors.New("not a participant of this match")
)

// Coordinator runs the matching flow: fetch candidates of the opposite
// kind, score each pair, and persist results. It holds an explicit
// database handle; there is no shared global state.
type Coordinator struct {
	DB *sql.DB
}

// NewCoordinator creates a Coordinator using the given database handle.
func NewCoordinator(db *sql.DB) *Coordinator {
	return &Coordinator{DB: db}
}

// Run matches the anchor item against every non-deleted item of the
// opposite kind, regardless of owner. Candidates are processed in
// ascending id order so repeated runs produce identical results.
// Pairs whose stored match is already confirmed are returned unchanged;
// the upsert never overwrites a confirmed match.
func (c *Coordinator) Run(ctx context.Context, anchor *model.Item) ([]model.Match, error) {
	candidates, err := store.ListCandidates(ctx, c.DB, anchor.Kind)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	var results []model.Match
	for i := range candidates {
		lost, found := orient(anchor, &candidates[i])

		outcome, ok := Evaluate(*lost, *found)
		if !ok {
			continue
		}

		m, err := store.UpsertMatch(ctx, c.DB, lost.ID, found.ID, outcome.Score, outcome.Level, outcome.Reason)
		if err != nil {
			return nil, fmt.Errorf("persisting match for pair (%d, %d): %w", lost.ID, found.ID, err)
		}
		results = append(results, *m)
	}

	return results, nil
}

// orient returns the pair in (lost, found) order.
func orient(anchor, candidate *model.Item) (lost, found *model.Item) {
	if anchor.Kind == model.KindLost {
		return anchor, candidate
	}
	return candidate, anchor
}

// Confirm marks a match as completed on behalf of a user. Only the owner
// of either item, or an admin, may confirm. Confirming an already
// confirmed match is a no-op that returns the stored row.
func (c *Coordinator) Confirm(ctx context.Context, matchID, userID int64, role string) (*model.Match, error) {
	m, err := store.GetMatch(ctx, c.DB, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}

	if !m.Participant(userID) && !model.RoleAtLeast(role, model.RoleAdmin) {
		return nil, ErrNotParticipant
	}

	if m.IsCompleted {
		return m, nil
	}

	if err := store.CompleteMatch(ctx, c.DB, matchID); err != nil {
		return nil, err
	}

	return store.GetMatch(ctx, c.DB, matchID)
}
