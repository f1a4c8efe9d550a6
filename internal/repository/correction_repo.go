package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// CorrectionRepo is the append-only correction log.
type CorrectionRepo struct {
	pool *pgxpool.Pool
}

func NewCorrectionRepo(pool *pgxpool.Pool) *CorrectionRepo {
	return &CorrectionRepo{pool: pool}
}

const correctionColumns = `id, script_id, detection_id, correction_type, line_start, line_end,
		       category, severity, note, created_at`

func scanCorrection(row pgx.Row) (*model.UserCorrection, error) {
	var (
		c        model.UserCorrection
		kind     string
		category *string
	)
	err := row.Scan(
		&c.ID, &c.ScriptID, &c.DetectionID, &kind, &c.LineStart, &c.LineEnd,
		&category, &c.Severity, &c.Note, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CorrectionType = model.CorrectionType(kind)
	if category != nil {
		cat := taxonomy.Category(*category)
		c.Category = &cat
	}
	return &c, nil
}

// Create appends a correction. The script must exist.
func (r *CorrectionRepo) Create(ctx context.Context, c model.UserCorrection) (*model.UserCorrection, error) {
	var category *string
	if c.Category != nil {
		s := string(*c.Category)
		category = &s
	}

	saved, err := scanCorrection(r.pool.QueryRow(ctx, `
		INSERT INTO user_corrections (script_id, detection_id, correction_type, line_start, line_end, category, severity, note)
		SELECT id, $2, $3, $4, $5, $6, $7, $8 FROM scripts WHERE id = $1
		RETURNING `+correctionColumns,
		c.ScriptID, c.DetectionID, string(c.CorrectionType), c.LineStart, c.LineEnd, category, c.Severity, c.Note))
	if err == pgx.ErrNoRows {
		return nil, scriptNotFound(c.ScriptID)
	}
	return saved, err
}

// ListByScript returns a script's corrections, oldest first.
func (r *CorrectionRepo) ListByScript(ctx context.Context, scriptID int64) ([]model.UserCorrection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+correctionColumns+`
		FROM user_corrections
		WHERE script_id = $1
		ORDER BY created_at, id`, scriptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	corrections := []model.UserCorrection{}
	for rows.Next() {
		c, err := scanCorrection(rows)
		if err != nil {
			return nil, err
		}
		corrections = append(corrections, *c)
	}
	return corrections, rows.Err()
}
