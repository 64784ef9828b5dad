package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quizzerhq/quizzer/internal/quiz"
)

// PostgresBank stores question sets as JSONB rows, keyed by sanitized name.
// Schema lives in db/migrations and is applied via cmd/migrator.
type PostgresBank struct {
	pool *pgxpool.Pool
}

// NewPostgresBank wraps an existing connection pool.
func NewPostgresBank(pool *pgxpool.Pool) *PostgresBank {
	return &PostgresBank{pool: pool}
}

// Save upserts the set.
func (p *PostgresBank) Save(ctx context.Context, name string, questions []quiz.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal question set: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO question_sets (name, questions, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET questions = EXCLUDED.questions, updated_at = now()`,
		sanitizeName(name), data)
	if err != nil {
		return fmt.Errorf("upsert question set: %w", err)
	}
	return nil
}

// Load reads a set by name.
func (p *PostgresBank) Load(ctx context.Context, name string) ([]quiz.Question, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT questions FROM question_sets WHERE name = $1`,
		sanitizeName(name)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select question set: %w", err)
	}
	var questions []quiz.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode question set: %w", err)
	}
	return questions, nil
}

// List returns every stored set with its question count, sorted by name.
func (p *PostgresBank) List(ctx context.Context) ([]SetInfo, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT name, jsonb_array_length(questions) FROM question_sets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list question sets: %w", err)
	}
	defer rows.Close()

	var out []SetInfo
	for rows.Next() {
		var info SetInfo
		if err := rows.Scan(&info.Name, &info.Count); err != nil {
			return nil, fmt.Errorf("scan question set row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a set by name.
func (p *PostgresBank) Delete(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM question_sets WHERE name = $1`, sanitizeName(name))
	if err != nil {
		return fmt.Errorf("delete question set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSetNotFound
	}
	return nil
}
