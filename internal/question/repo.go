package question

import "context"

type ListOpts struct {
	Limit  int // 0 = no limit
	Offset int
}

// Store persists questions. Create assigns the next ID from the question
// counter and writes counter and record in one transaction, so concurrent
// creates never share an ID.
type Store interface {
	Create(ctx context.Context, q Question) (Question, error)
	Get(ctx context.Context, id int64) (Question, error)
	List(ctx context.Context, opts ListOpts) ([]Question, error)
	// Update overwrites the text and answers of an existing question. ID and
	// CreatedAt are kept.
	Update(ctx context.Context, q Question) (Question, error)
	Delete(ctx context.Context, id int64) error
}
