package repository

import (
	"context"
	"fmt"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/jmoiron/sqlx"
)

// Position is one (model, rank) observation from the ranking history.
type Position struct {
	ModelName    string `db:"model_name"`
	RankPosition int    `db:"rank_position"`
}

type Totals struct {
	Sessions    int `db:"sessions"`
	UniqueUsers int `db:"unique_users"`
	Rankings    int `db:"rankings"`
}

type RankingRepository interface {
	// CreateSession stores the session and its entries in one transaction.
	CreateSession(ctx context.Context, s domain.VotingSession, entries []domain.RankedEntry) error
	Positions(ctx context.Context) ([]Position, error)
	Totals(ctx context.Context) (Totals, error)
	SessionRows(ctx context.Context) ([]domain.SessionRow, error)
	RankingRows(ctx context.Context) ([]domain.RankingRow, error)
}

type rankingSQLRepo struct {
	db *sqlx.DB
}

func NewRankingRepository(db *sqlx.DB) RankingRepository {
	return &rankingSQLRepo{db: db}
}

func (r *rankingSQLRepo) CreateSession(ctx context.Context, s domain.VotingSession, entries []domain.RankedEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `
		INSERT INTO voting_sessions (session_id, user_id, prompt, created_at)
		VALUES (:session_id, :user_id, :prompt, :created_at)`, s); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for _, e := range entries {
		if _, err = tx.NamedExecContext(ctx, `
			INSERT INTO model_rankings (ranking_id, session_id, model_name, model_id, rank_position, created_at)
			VALUES (:ranking_id, :session_id, :model_name, :model_id, :rank_position, :created_at)`, e); err != nil {
			return fmt.Errorf("insert ranking: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *rankingSQLRepo) Positions(ctx context.Context) ([]Position, error) {
	var out []Position
	if err := r.db.SelectContext(ctx, &out, `SELECT model_name, rank_position FROM model_rankings`); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return out, nil
}

func (r *rankingSQLRepo) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := r.db.GetContext(ctx, &t, `
		SELECT
			(SELECT COUNT(*) FROM voting_sessions) AS sessions,
			(SELECT COUNT(DISTINCT user_id) FROM voting_sessions) AS unique_users,
			(SELECT COUNT(*) FROM model_rankings) AS rankings`)
	if err != nil {
		return Totals{}, fmt.Errorf("totals: %w", err)
	}
	return t, nil
}

func (r *rankingSQLRepo) SessionRows(ctx context.Context) ([]domain.SessionRow, error) {
	var out []domain.SessionRow
	err := r.db.SelectContext(ctx, &out, `
		SELECT vs.session_id, vs.prompt, vs.created_at, COALESCE(u.username, '') AS username
		FROM voting_sessions vs
		LEFT JOIN users u ON vs.user_id = u.user_id
		ORDER BY vs.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (r *rankingSQLRepo) RankingRows(ctx context.Context) ([]domain.RankingRow, error) {
	var out []domain.RankingRow
	err := r.db.SelectContext(ctx, &out, `
		SELECT mr.session_id, mr.model_name, mr.rank_position, mr.created_at, COALESCE(u.username, '') AS username
		FROM model_rankings mr
		JOIN voting_sessions vs ON mr.session_id = vs.session_id
		LEFT JOIN users u ON vs.user_id = u.user_id
		ORDER BY mr.created_at DESC, mr.session_id, mr.rank_position`)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	return out, nil
}
