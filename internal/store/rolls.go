package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DaanHessen/rollwright/internal/trace"
)

// RollRecord is one stored roll.
type RollRecord struct {
	ID         uuid.UUID   `json:"id"`
	RequestID  string      `json:"request_id"`
	Expression string      `json:"expression"`
	Value      int         `json:"value"`
	Trace      trace.Trace `json:"trace"`
	CreatedAt  time.Time   `json:"created_at"`
}

// MaxHistory is how many rolls are kept; older ones are dropped on insert.
const MaxHistory = 10_000

// RollRepo stores roll history.
type RollRepo struct {
	db   *DB
	keep int
}

func NewRollRepo(db *DB) *RollRepo { return &RollRepo{db: db, keep: MaxHistory} }

// Insert stores rec and returns its id, trimming the history to MaxHistory rows in the
// same transaction. A zero ID or CreatedAt is filled in.
func (r *RollRepo) Insert(ctx context.Context, rec RollRecord) (uuid.UUID, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	tr, err := json.Marshal(rec.Trace)
	if err != nil {
		return uuid.Nil, wrap(err, "encode trace")
	}
	err = r.db.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.Exec(
			`INSERT INTO rolls(id, request_id, expression, value, trace, created_at) VALUES (?,?,?,?,?,?)`,
			rec.ID, rec.RequestID, rec.Expression, rec.Value, tr, rec.CreatedAt,
		).Error
		if err != nil {
			return err
		}
		return tx.Exec(
			`DELETE FROM rolls WHERE id IN (SELECT id FROM rolls ORDER BY created_at DESC OFFSET ?)`, r.keep,
		).Error
	})
	if err != nil {
		return uuid.Nil, wrap(err, "insert roll")
	}
	return rec.ID, nil
}

// Recent returns up to limit rolls, newest first.
func (r *RollRepo) Recent(ctx context.Context, limit int) ([]RollRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.gorm.WithContext(ctx).Raw(
		`SELECT id, request_id, expression, value, trace, created_at FROM rolls ORDER BY created_at DESC LIMIT ?`, limit,
	).Rows()
	if err != nil {
		return nil, wrap(err, "query rolls")
	}
	defer rows.Close()
	var out []RollRecord
	for rows.Next() {
		var (
			rec RollRecord
			tr  []byte
		)
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Expression, &rec.Value, &tr, &rec.CreatedAt); err != nil {
			return nil, wrap(err, "scan roll")
		}
		if err := json.Unmarshal(tr, &rec.Trace); err != nil {
			return nil, wrap(err, "decode trace")
		}
		out = append(out, rec)
	}
	return out, wrap(rows.Err(), "iterate rolls")
}
