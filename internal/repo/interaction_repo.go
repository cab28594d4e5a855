package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/collinsayidan/Collinalitics/internal/model"
	"github.com/collinsayidan/Collinalitics/internal/pkg/dbutil"
)

// InteractionRepo is the append-only audit trail of answered questions.
// Records are never updated or deleted here; retention is an external
// policy concern.
type InteractionRepo struct {
	db *sql.DB
}

func NewInteractionRepo(db *sql.DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

func (r *InteractionRepo) Create(ctx context.Context, item *model.Interaction) error {
	sourceIDs := item.SourceIDs
	if sourceIDs == nil {
		sourceIDs = []string{}
	}
	blob, err := json.Marshal(sourceIDs)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":          item.ID,
		"query_text":  item.Query,
		"answer_text": item.Answer,
		"source_ids":  string(blob),
		"ctime":       item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("interactions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *InteractionRepo) List(ctx context.Context, limit, offset int) ([]model.Interaction, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc, id desc",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("interactions", where,
		[]string{"id", "query_text", "answer_text", "source_ids", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Interaction
	for rows.Next() {
		var item model.Interaction
		var blob []byte
		if err := rows.Scan(&item.ID, &item.Query, &item.Answer, &blob, &item.Ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(blob, &item.SourceIDs); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *InteractionRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interactions").Scan(&count)
	return count, err
}
