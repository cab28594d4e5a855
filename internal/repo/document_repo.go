package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/collinsayidan/Collinalitics/internal/model"
	"github.com/collinsayidan/Collinalitics/internal/pkg/dbutil"
	appErr "github.com/collinsayidan/Collinalitics/internal/pkg/errors"
)

const documentColumns = "id, title, slug, content, tags, ctime"

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":      doc.ID,
		"title":   doc.Title,
		"slug":    doc.Slug,
		"content": doc.Content,
		"tags":    doc.Tags,
		"ctime":   doc.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("knowledge_documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// UpsertBySlug inserts doc or, when the slug already exists, replaces the
// stored title/content/tags. The slug is the natural key; the returned id
// is the surviving document's id.
func (r *DocumentRepo) UpsertBySlug(ctx context.Context, doc *model.Document) (string, error) {
	const query = `
		INSERT INTO knowledge_documents (id, title, slug, content, tags, ctime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			tags = EXCLUDED.tags,
			ctime = EXCLUDED.ctime
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		doc.ID, doc.Title, doc.Slug, doc.Content, doc.Tags, doc.Ctime,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{"id": id})
}

func (r *DocumentRepo) GetBySlug(ctx context.Context, slug string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{"slug": slug})
}

func (r *DocumentRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("knowledge_documents", where,
		[]string{"id", "title", "slug", "content", "tags", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Slug, &doc.Content, &doc.Tags, &doc.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, limit, offset int) ([]model.Document, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc, id desc",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("knowledge_documents", where,
		[]string{"id", "title", "slug", "content", "tags", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.scanDocuments(ctx, sqlStr, args)
}

func (r *DocumentRepo) ListAll(ctx context.Context) ([]model.Document, error) {
	sqlStr, args := dbutil.Finalize(
		"SELECT "+documentColumns+" FROM knowledge_documents ORDER BY ctime ASC, id ASC", nil)
	return r.scanDocuments(ctx, sqlStr, args)
}

func (r *DocumentRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{
		"id in": ids,
	}
	sqlStr, args, err := builder.BuildSelect("knowledge_documents", where,
		[]string{"id", "title", "slug", "content", "tags", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.scanDocuments(ctx, sqlStr, args)
}

func (r *DocumentRepo) scanDocuments(ctx context.Context, sqlStr string, args []interface{}) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Slug, &doc.Content, &doc.Tags, &doc.Ctime); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document; its embeddings go with it via the foreign
// key cascade.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	sqlStr, args := dbutil.Finalize("DELETE FROM knowledge_documents WHERE id = ?", []interface{}{id})
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_documents").Scan(&count)
	return count, err
}

// LatestCtime returns the newest document creation time, 0 for an empty
// corpus. Used to decide whether a scheduled rebuild has anything to do.
func (r *DocumentRepo) LatestCtime(ctx context.Context) (int64, error) {
	var latest sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT MAX(ctime) FROM knowledge_documents").Scan(&latest)
	if err != nil {
		return 0, err
	}
	if !latest.Valid {
		return 0, nil
	}
	return latest.Int64, nil
}
