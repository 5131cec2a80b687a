package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeText     Type = "text"
	TypeImage    Type = "image"
	TypeLocation Type = "location"
)

// CatalogSize is the fixed number of challenges per quest.
const CatalogSize = 5

// Challenge is one step of a quest's ordered catalog. The catalog is created
// in a single batch at quest creation and never reordered or deleted; only
// the insights payload is written afterwards, at most once.
type Challenge struct {
	ID               uuid.UUID `json:"id" db:"id"`
	QuestID          uuid.UUID `json:"questId" db:"quest_id"`
	OrderIndex       int       `json:"orderIndex" db:"order_index"`
	Type             Type      `json:"type" db:"type"`
	Prompt           string    `json:"prompt" db:"prompt"`
	TimeLimitSeconds int       `json:"timeLimitSeconds" db:"time_limit_seconds"`

	// Insights is a JSON string {title, description, unlockedAt} attached
	// after both participants approve this step. Nil until then.
	Insights *string `json:"insights,omitempty" db:"insights"`
}

// Deadline is the absolute cutoff for submissions, relative to the owning
// quest's creation time.
func (c *Challenge) Deadline(questCreatedAt time.Time) time.Time {
	return questCreatedAt.Add(time.Duration(c.TimeLimitSeconds) * time.Second)
}

// Definition is the shape the generation collaborator returns, and the shape
// of the fallback catalog entries.
type Definition struct {
	Type             Type   `json:"type"`
	Prompt           string `json:"prompt"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

// Insight is the unlocked payload serialized into Challenge.Insights.
type Insight struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}
