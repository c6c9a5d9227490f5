package db

import "github.com/soaringjerry/growpoint/internal/services"

// Store is what the server needs from a backend.
type Store interface {
	services.RosterStore
	services.RosterWriter
	services.FeedbackStore
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*MongoStore)(nil)
)
