package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

type DetectionRepo struct {
	pool *pgxpool.Pool
}

func NewDetectionRepo(pool *pgxpool.Pool) *DetectionRepo {
	return &DetectionRepo{pool: pool}
}

const detectionColumns = `id, script_id, scene_id, line_start, line_end, detected_text,
		       context_before, context_after, category, severity, parents_guide_severity,
		       character_name, page_number, matched_patterns, is_false_positive, user_corrected, created_at`

func scanDetection(row pgx.Row) (*model.LineDetection, error) {
	var (
		d        model.LineDetection
		category string
		patterns []byte
	)
	err := row.Scan(
		&d.ID, &d.ScriptID, &d.SceneID, &d.LineStart, &d.LineEnd, &d.DetectedText,
		&d.ContextBefore, &d.ContextAfter, &category, &d.Severity, &d.ParentsGuideSeverity,
		&d.CharacterName, &d.PageNumber, &patterns, &d.IsFalsePositive, &d.UserCorrected, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Category = taxonomy.Category(category)
	if err := unmarshalColumn(patterns, &d.MatchedPatterns); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByScript returns a script's detections in line order. False positives are
// left out unless includeFalsePositives is set.
func (r *DetectionRepo) ListByScript(ctx context.Context, scriptID int64, includeFalsePositives bool) ([]model.LineDetection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+detectionColumns+`
		FROM line_detections
		WHERE script_id = $1 AND ($2 OR NOT is_false_positive)
		ORDER BY line_start, line_end, id`, scriptID, includeFalsePositives)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detections := []model.LineDetection{}
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, *d)
	}
	return detections, rows.Err()
}

// Get returns one detection.
func (r *DetectionRepo) Get(ctx context.Context, id int64) (*model.LineDetection, error) {
	d, err := scanDetection(r.pool.QueryRow(ctx, `
		SELECT `+detectionColumns+`
		FROM line_detections WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, detectionNotFound(id)
	}
	return d, err
}

// ReplaceForScript deletes every detection of the script and inserts ds in one
// transaction. Ids in ds are ignored; the stored rows are returned.
func (r *DetectionRepo) ReplaceForScript(ctx context.Context, scriptID int64, ds []model.LineDetection) ([]model.LineDetection, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM line_detections WHERE script_id = $1`, scriptID); err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, d := range ds {
		patterns, err := json.Marshal(d.MatchedPatterns)
		if err != nil {
			return nil, err
		}
		batch.Queue(`
			INSERT INTO line_detections (
				script_id, scene_id, line_start, line_end, detected_text, context_before, context_after,
				category, severity, parents_guide_severity, character_name, page_number,
				matched_patterns, is_false_positive, user_corrected
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14, $15)`,
			scriptID, d.SceneID, d.LineStart, d.LineEnd, d.DetectedText, d.ContextBefore, d.ContextAfter,
			string(d.Category), d.Severity, d.ParentsGuideSeverity, d.CharacterName, d.PageNumber,
			string(patterns), d.IsFalsePositive, d.UserCorrected,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("insert detections: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.ListByScript(ctx, scriptID, true)
}

// SetFalsePositive sets the flag on exactly one row and marks it user-corrected.
// Setting the current value again leaves the row as it is.
func (r *DetectionRepo) SetFalsePositive(ctx context.Context, id int64, isFalsePositive bool) (*model.LineDetection, error) {
	d, err := scanDetection(r.pool.QueryRow(ctx, `
		UPDATE line_detections
		SET is_false_positive = $2, user_corrected = TRUE
		WHERE id = $1
		RETURNING `+detectionColumns, id, isFalsePositive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, detectionNotFound(id)
	}
	return d, err
}

func detectionNotFound(id int64) error {
	return apperr.NotFound(fmt.Sprintf("detection %d not found", id))
}
