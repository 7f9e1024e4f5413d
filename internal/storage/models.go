package storage

import "time"

// ChatTurn is one recorded conversation turn. Rows are append-only: written
// once after a response exists, never updated or deleted by the application.
type ChatTurn struct {
	ID        int64
	UserID    string // optional; empty means anonymous
	SessionID string // opaque UUID, stable for the browser session
	UserQuery string
	Response  string
	Context   string // retrieved context the answer was grounded on
	CreatedAt time.Time
}
