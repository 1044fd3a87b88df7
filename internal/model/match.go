package model

import "time"

// Level grades how strong a match suggestion is.
type Level string

// Match levels.
const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// ValidLevel reports whether l is a known match level.
func ValidLevel(l Level) bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}

// Match links a lost report to a found report with a score and an
// explanation. At most one match exists per (lost, found) pair; a
// confirmed match is locked against automatic rescoring.
type Match struct {
	ID          int64      `json:"id"`
	LostItemID  int64      `json:"lost_item_id"`
	FoundItemID int64      `json:"found_item_id"`
	Score       int        `json:"score"`
	Level       Level      `json:"level"`
	Reason      string     `json:"reason"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Joined fields (not always populated).
	LostCategory     string `json:"lost_category,omitempty"`
	LostDescription  string `json:"lost_description,omitempty"`
	LostUserID       int64  `json:"lost_user_id,omitempty"`
	FoundCategory    string `json:"found_category,omitempty"`
	FoundDescription string `json:"found_description,omitempty"`
	FoundUserID      int64  `json:"found_user_id,omitempty"`
}

// Participant reports whether the user owns either item of the match.
func (m *Match) Participant(userID int64) bool {
	return userID == m.LostUserID || userID == m.FoundUserID
}
