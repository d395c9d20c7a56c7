package postgres

import (
	"context"
	"errors"
	"fmt"

	"gamemaster-quiz/internal/bankfile"
	"gamemaster-quiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Catalog stores banks as JSONB rows keyed by (id, custom), in the same layout as
// bank files.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) ListBanks(ctx context.Context) ([]domain.BankRef, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, custom FROM quiz_banks ORDER BY custom, id`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	var refs []domain.BankRef
	for rows.Next() {
		var key domain.BankKey
		if err := rows.Scan(&key.ID, &key.Custom); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		refs = append(refs, domain.BankRef{ID: key.ID, Path: "postgres:" + key.String(), Custom: key.Custom})
	}
	return refs, rows.Err()
}

func (c *Catalog) LoadBank(ctx context.Context, key domain.BankKey) (domain.QuestionBank, error) {
	var raw []byte
	err := c.pool.QueryRow(ctx, `SELECT data FROM quiz_banks WHERE id=$1 AND custom=$2`, key.ID, key.Custom).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, fmt.Errorf("bank %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	return bankfile.Decode(key, raw)
}

func (c *Catalog) SaveBank(ctx context.Context, bank domain.QuestionBank) (domain.BankRef, error) {
	data, err := bankfile.Encode(bank)
	if err != nil {
		return domain.BankRef{}, err
	}
	_, err = c.pool.Exec(ctx, `
INSERT INTO quiz_banks (id, custom, data, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id, custom) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		bank.ID, bank.Custom, string(data))
	if err != nil {
		return domain.BankRef{}, fmt.Errorf("save bank: %w", err)
	}
	return domain.BankRef{ID: bank.ID, Path: "postgres:" + bank.Key().String(), Custom: bank.Custom}, nil
}

func (c *Catalog) DeleteBank(ctx context.Context, key domain.BankKey) error {
	tag, err := c.pool.Exec(ctx, `DELETE FROM quiz_banks WHERE id=$1 AND custom=$2`, key.ID, key.Custom)
	if err != nil {
		return fmt.Errorf("delete bank: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bank %s: %w", key, domain.ErrNotFound)
	}
	return nil
}
