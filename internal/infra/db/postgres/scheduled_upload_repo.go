package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-video-orchestrator/internal/domain/model"
	"ai-video-orchestrator/internal/domain/ports/repository"
	"ai-video-orchestrator/internal/infra/metrics"
)

var _ repository.ScheduledUploadQueue = (*ScheduledUploadRepo)(nil)

const scheduledUploadsSchema = `
CREATE TABLE IF NOT EXISTS scheduled_uploads (
  seq            BIGSERIAL PRIMARY KEY,
  id             TEXT        NOT NULL UNIQUE,
  scheduled_time TIMESTAMPTZ NOT NULL,
  payload        JSONB       NOT NULL,
  enqueued_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS scheduled_uploads_time_idx ON scheduled_uploads (scheduled_time);`

// ScheduledUploadRepo keeps the waiting queue in a table ordered by seq.
type ScheduledUploadRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewScheduledUploadRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *ScheduledUploadRepo {
	return &ScheduledUploadRepo{pool: pool, tm: tm}
}

// EnsureSchema creates the table when missing.
func (r *ScheduledUploadRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, scheduledUploadsSchema)
	return err
}

func (r *ScheduledUploadRepo) Enqueue(ctx context.Context, item *model.ScheduledUploadItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode scheduled upload %s: %w", item.ID, err)
	}
	const q = `
INSERT INTO scheduled_uploads (id, scheduled_time, payload)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
  scheduled_time = EXCLUDED.scheduled_time,
  payload = EXCLUDED.payload;`
	_, err = r.pool.Exec(ctx, q, item.ID, item.ScheduledTime, payload)
	metrics.IncStoreOp("postgres", "enqueue", err)
	return err
}

func (r *ScheduledUploadRepo) DrainAll(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	var items []*model.ScheduledUploadItem
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ex, err := getExecutor(r.pool, tx)
		if err != nil {
			return err
		}
		rows, err := ex.Query(ctx, `SELECT seq, payload FROM scheduled_uploads ORDER BY seq FOR UPDATE;`)
		if err != nil {
			return err
		}
		var seqs []int64
		items, seqs, err = scanItems(rows)
		if err != nil {
			return err
		}
		if len(seqs) == 0 {
			return nil
		}
		_, err = ex.Exec(ctx, `DELETE FROM scheduled_uploads WHERE seq = ANY($1);`, seqs)
		return err
	})
	metrics.IncStoreOp("postgres", "drain", err)
	if err != nil {
		return nil, err
	}
	reportPoolStats(r.pool)
	return items, nil
}

func (r *ScheduledUploadRepo) List(ctx context.Context) ([]*model.ScheduledUploadItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT seq, payload FROM scheduled_uploads ORDER BY seq;`)
	if err != nil {
		return nil, err
	}
	items, _, err := scanItems(rows)
	return items, err
}

func (r *ScheduledUploadRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM scheduled_uploads;`).Scan(&n)
	return n, err
}

func scanItems(rows pgx.Rows) ([]*model.ScheduledUploadItem, []int64, error) {
	defer rows.Close()
	var (
		items []*model.ScheduledUploadItem
		seqs  []int64
	)
	for rows.Next() {
		var (
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, nil, err
		}
		var it model.ScheduledUploadItem
		if err := json.Unmarshal(payload, &it); err != nil {
			return nil, nil, fmt.Errorf("decode scheduled upload seq=%d: %w", seq, err)
		}
		items = append(items, &it)
		seqs = append(seqs, seq)
	}
	return items, seqs, rows.Err()
}
