package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const TypeQuestionCreated = "QuestionCreated"
const TypeQuestionUpdated = "QuestionUpdated"
const TypeQuestionDeleted = "QuestionDeleted"

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	DataJSON  json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// Execer is satisfied by *sql.DB and *sql.Tx, so events can be written in
// the same transaction as the change they record.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventRepo struct{ siteID string }

func NewEventRepo(siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, ex Execer, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, typ, key, string(buf), time.Now().Unix())
	return err
}

// Since returns events with seq greater than after, oldest first.
func Since(ctx context.Context, db *sql.DB, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.DataJSON = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
