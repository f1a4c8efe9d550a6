package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ScriptRepo struct {
	pool *pgxpool.Pool
}

func NewScriptRepo(pool *pgxpool.Pool) *ScriptRepo {
	return &ScriptRepo{pool: pool}
}

const scriptColumns = `id, title, predicted_rating, agg_scores, model_version, total_scenes,
		       reasons, evidence_excerpts, created_at, updated_at`

// scanScript reads scriptColumns, optionally followed by content.
func scanScript(row pgx.Row, content *string) (*model.Script, error) {
	var (
		s                        model.Script
		rating                   *string
		scores, reasons, excerpt []byte
	)
	dest := []any{
		&s.ID, &s.Title, &rating, &scores, &s.ModelVersion, &s.TotalScenes,
		&reasons, &excerpt, &s.CreatedAt, &s.UpdatedAt,
	}
	if content != nil {
		dest = append(dest, content)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if rating != nil {
		r := model.Rating(*rating)
		s.PredictedRating = &r
	}
	if err := unmarshalColumn(scores, &s.AggScores); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(reasons, &s.Reasons); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(excerpt, &s.EvidenceExcerpts); err != nil {
		return nil, err
	}
	return &s, nil
}

func unmarshalColumn(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode jsonb column: %w", err)
	}
	return nil
}

// List returns scripts newest first, without their text.
func (r *ScriptRepo) List(ctx context.Context, limit, offset int) ([]model.Script, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scriptColumns+`
		FROM scripts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scripts := []model.Script{}
	for rows.Next() {
		s, err := scanScript(rows, nil)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *s)
	}
	return scripts, rows.Err()
}

// Get returns a script with its full text.
func (r *ScriptRepo) Get(ctx context.Context, id int64) (*model.ScriptDetail, error) {
	var content string
	s, err := scanScript(r.pool.QueryRow(ctx, `
		SELECT `+scriptColumns+`, content
		FROM scripts WHERE id = $1`, id), &content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, scriptNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &model.ScriptDetail{Script: *s, Content: content}, nil
}

// Create stores a new, unrated script.
func (r *ScriptRepo) Create(ctx context.Context, title, content string) (*model.ScriptDetail, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scripts (title, content) VALUES ($1, $2)
		RETURNING id`, title, content).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// UpdateContent snapshots the current text as a new version, then replaces it.
func (r *ScriptRepo) UpdateContent(ctx context.Context, id int64, content string, description *string) (*model.ScriptDetail, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := snapshot(ctx, tx, id, description); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE scripts SET content = $2, updated_at = NOW()
		WHERE id = $1`, id, content)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// CreateVersion snapshots the current text without changing it.
func (r *ScriptRepo) CreateVersion(ctx context.Context, id int64, description *string) (*model.ScriptVersion, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	v, err := snapshot(ctx, tx, id, description)
	if err != nil {
		return nil, err
	}
	return v, tx.Commit(ctx)
}

// snapshot copies the script's current text and rating into the next version number.
// The script row is locked so concurrent snapshots get distinct numbers.
func snapshot(ctx context.Context, tx pgx.Tx, id int64, description *string) (*model.ScriptVersion, error) {
	var (
		v      model.ScriptVersion
		rating *string
	)
	err := tx.QueryRow(ctx, `
		WITH locked AS (
			SELECT id, content, predicted_rating FROM scripts WHERE id = $1 FOR UPDATE
		)
		INSERT INTO script_versions (script_id, version_number, content, rating, description)
		SELECT l.id,
		       COALESCE((SELECT MAX(version_number) FROM script_versions WHERE script_id = l.id), 0) + 1,
		       l.content, l.predicted_rating, $2
		FROM locked l
		RETURNING id, script_id, version_number, content, rating, description, created_at`,
		id, description).Scan(
		&v.ID, &v.ScriptID, &v.VersionNumber, &v.Content, &rating, &v.Description, &v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, scriptNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	if rating != nil {
		rt := model.Rating(*rating)
		v.Rating = &rt
	}
	return &v, nil
}

// ListVersions returns a script's versions, newest first.
func (r *ScriptRepo) ListVersions(ctx context.Context, id int64) ([]model.ScriptVersion, error) {
	if err := r.exists(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, script_id, version_number, content, rating, description, created_at
		FROM script_versions
		WHERE script_id = $1
		ORDER BY version_number DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := []model.ScriptVersion{}
	for rows.Next() {
		var (
			v      model.ScriptVersion
			rating *string
		)
		if err := rows.Scan(&v.ID, &v.ScriptID, &v.VersionNumber, &v.Content, &rating, &v.Description, &v.CreatedAt); err != nil {
			return nil, err
		}
		if rating != nil {
			rt := model.Rating(*rating)
			v.Rating = &rt
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// SaveRating stores the engine's verdict on the script row.
func (r *ScriptRepo) SaveRating(ctx context.Context, id int64, res *model.RatingResult) (*model.ScriptDetail, error) {
	scores, err := json.Marshal(res.AggScores)
	if err != nil {
		return nil, err
	}
	reasons, err := json.Marshal(nonNil(res.Reasons))
	if err != nil {
		return nil, err
	}
	excerpts, err := json.Marshal(nonNil(res.EvidenceExcerpts))
	if err != nil {
		return nil, err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE scripts
		SET predicted_rating = $2, agg_scores = $3::jsonb, model_version = $4, total_scenes = $5,
		    reasons = $6::jsonb, evidence_excerpts = $7::jsonb, updated_at = NOW()
		WHERE id = $1`,
		id, string(res.PredictedRating), string(scores), res.ModelVersion, res.TotalScenes,
		string(reasons), string(excerpts))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, scriptNotFound(id)
	}
	return r.Get(ctx, id)
}

func (r *ScriptRepo) exists(ctx context.Context, id int64) error {
	var found bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM scripts WHERE id = $1)`, id).Scan(&found); err != nil {
		return err
	}
	if !found {
		return scriptNotFound(id)
	}
	return nil
}

func scriptNotFound(id int64) error {
	return apperr.NotFound(fmt.Sprintf("script %d not found", id))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
