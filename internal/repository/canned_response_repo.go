package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"govassist-backend/internal/models"
)

type CannedResponseRepo struct {
	pool *pgxpool.Pool
}

func NewCannedResponseRepo(pool *pgxpool.Pool) *CannedResponseRepo {
	return &CannedResponseRepo{pool: pool}
}

// List returns every canned response in match order.
func (r *CannedResponseRepo) List(ctx context.Context) ([]models.CannedResponse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, keyword, response, position
		FROM canned_responses
		ORDER BY kind, position, id
	`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CannedResponse, error) {
		var c models.CannedResponse
		err := row.Scan(&c.Kind, &c.Keyword, &c.Response, &c.Position)
		return c, err
	})
}

// Replace swaps all rows of every kind present in records for records, in
// one transaction. Kinds absent from records are left alone.
func (r *CannedResponseRepo) Replace(ctx context.Context, records []models.CannedResponse) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, kind := range kindsOf(records) {
			if _, err := tx.Exec(ctx, `DELETE FROM canned_responses WHERE kind = $1`, kind); err != nil {
				return fmt.Errorf("clear %s responses: %w", kind, err)
			}
		}

		batch := &pgx.Batch{}
		for _, c := range records {
			batch.Queue(`
				INSERT INTO canned_responses (kind, keyword, response, position)
				VALUES ($1, LOWER($2), $3, $4)
			`, c.Kind, c.Keyword, c.Response, c.Position)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// kindsOf lists the distinct kinds in records, in first-seen order.
func kindsOf(records []models.CannedResponse) []string {
	seen := map[string]bool{}
	var kinds []string
	for _, c := range records {
		if !seen[c.Kind] {
			seen[c.Kind] = true
			kinds = append(kinds, c.Kind)
		}
	}
	return kinds
}
