package question

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/mind-engage/mindengage-qbank/internal/db"
	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

// CounterName is the counters row holding the last issued question ID.
const CounterName = "questions"

type SQLStore struct {
	db     *sql.DB
	events *syncx.EventRepo
}

func NewSQLStore(h *sql.DB, events *syncx.EventRepo) *SQLStore {
	if events == nil {
		events = syncx.NewEventRepo("")
	}
	return &SQLStore{db: h, events: events}
}

func (s *SQLStore) Create(ctx context.Context, q Question) (Question, error) {
	q.CreatedAt = time.Now().Unix()
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, CounterName)
		if err != nil {
			return err
		}
		q.ID = id
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id,question,a,b,c,d,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			q.ID, q.Question, q.A, q.B, q.C, q.D, q.CreatedAt); err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.TypeQuestionCreated, strconv.FormatInt(q.ID, 10), q)
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

// nextID bumps the named counter (starting from 0 when absent) and returns the
// new value. The upsert is one statement, so the read-increment-write cannot
// interleave with another transaction.
func nextID(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO counters (name, current) VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET current = counters.current + 1
		 RETURNING current`, name).Scan(&id)
	return id, err
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,question,a,b,c,d,created_at FROM questions WHERE id=$1`, id)
	var q Question
	if err := row.Scan(&q.ID, &q.Question, &q.A, &q.B, &q.C, &q.D, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Question, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = math.MaxInt32 // portable "no limit" for sqlite and postgres
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,question,a,b,c,d,created_at FROM questions ORDER BY id LIMIT $1 OFFSET $2`,
		limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Question, &q.A, &q.B, &q.C, &q.D, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) Update(ctx context.Context, q Question) (Question, error) {
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`UPDATE questions SET question=$1, a=$2, b=$3, c=$4, d=$5 WHERE id=$6 RETURNING created_at`,
			q.Question, q.A, q.B, q.C, q.D, q.ID).Scan(&q.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return s.events.Append(ctx, tx, syncx.TypeQuestionUpdated, strconv.FormatInt(q.ID, 10), q)
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

// Events returns the change feed after seq, oldest first.
func (s *SQLStore) Events(ctx context.Context, after int64, limit int) ([]syncx.Event, error) {
	return syncx.Since(ctx, s.db, after, limit)
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return s.events.Append(ctx, tx, syncx.TypeQuestionDeleted, strconv.FormatInt(id, 10), map[string]int64{"id": id})
	})
}
