package model

import "time"

// Kind distinguishes lost-item reports from found-item reports.
type Kind string

// Item kinds.
const (
	KindLost  Kind = "lost"
	KindFound Kind = "found"
)

// Opposite returns the complementary kind (candidates for matching).
func (k Kind) Opposite() Kind {
	if k == KindLost {
		return KindFound
	}
	return KindLost
}

// ValidKind reports whether k is a known item kind.
func ValidKind(k Kind) bool {
	return k == KindLost || k == KindFound
}

// Categories is the fixed set of item categories offered on submission forms.
var Categories = []string{
	"证件",
	"电子产品",
	"书本资料",
	"衣物配件",
	"钥匙",
	"生活用品",
	"其他",
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Item represents a single lost or found report.
type Item struct {
	ID          int64      `json:"id"`
	Kind        Kind       `json:"kind"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	OccurredAt  time.Time  `json:"occurred_at"`
	UserID      int64      `json:"user_id"`
	ImageMime   string     `json:"image_mime,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	ReporterName string `json:"reporter_name,omitempty"`
}
