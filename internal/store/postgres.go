package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const qEnsureSchema = `--sql
create table if not exists app_state (
    key        text primary key,
    value      text not null,
    updated_at timestamptz not null default now()
);`

const qSelectValue = `--sql
select value from app_state where key = $1;`

const qUpsertValue = `--sql
insert into app_state (key, value, updated_at)
values ($1, $2, now())
on conflict (key) do update set value = excluded.value, updated_at = now();`

const qDeleteValue = `--sql
delete from app_state where key = $1;`

// Postgres is a KV backed by a single app_state table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Init creates the backing table when missing.
func (p *Postgres) Init(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, qEnsureSchema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, qSelectValue, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: get %q: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if _, err := p.pool.Exec(ctx, qUpsertValue, key, value); err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, qDeleteValue, key); err != nil {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

var _ KV = (*Postgres)(nil)
