package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
)

// ActivityRepo appends operator actions to the activity_logs table. Logging
// failures are reported but never propagated; an audit miss must not fail
// the action it describes.
type ActivityRepo struct{ DB *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

// Log records one action with a free-form details document.
func (r *ActivityRepo) Log(ctx context.Context, userID uint64, action string, details map[string]any) {
	body, err := json.Marshal(details)
	if err != nil {
		body = []byte("{}")
	}
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO activity_logs (user_id, action, details) VALUES (?,?,?)",
		userID, action, string(body)); err != nil {
		log.Printf("activity-log: insert failed for %s: %v", action, err)
	}
}
