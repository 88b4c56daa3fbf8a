package content

import "time"

// Post is a generated article. The campaign core never inspects these
// fields; this package is glue around the generation collaborator.
type Post struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Content     string    `json:"content" db:"content"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Views       int       `json:"views" db:"views"`
}
