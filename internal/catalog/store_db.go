package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

var ErrProductNotFound = errors.New("product not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) ListSortedByID(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, price_cents, image_url
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.ImageURL); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, price_cents, image_url
			FROM products
			WHERE id = $1
		`, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.ImageURL)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) GetStock(ctx context.Context, id int64) (Stock, bool, error) {
	st := Stock{ID: id}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT amount
			FROM stock
			WHERE id = $1
		`, id).Scan(&st.Amount)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Stock{}, false, nil
	}
	if err != nil {
		return Stock{}, false, err
	}
	return st, true, nil
}

func (s *PostgresStore) SetStock(ctx context.Context, id int64, amount int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE stock SET amount = $2 WHERE id = $1
		`, id, amount)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

// Seed inserts p and its stock, replacing existing rows.
func (s *PostgresStore) Seed(ctx context.Context, p Product, amount int) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, price_cents, image_url)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, price_cents = EXCLUDED.price_cents, image_url = EXCLUDED.image_url
		`, p.ID, p.Name, p.PriceCents, p.ImageURL); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stock (id, amount)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET amount = EXCLUDED.amount
		`, p.ID, amount); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// SeedDemo fills an empty catalog with the demo storefront. It reports
// whether anything was inserted.
func (s *PostgresStore) SeedDemo(ctx context.Context) (bool, error) {
	existing, err := s.ListSortedByID(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	for _, d := range demoCatalog {
		if err := s.Seed(ctx, d.Product, d.Amount); err != nil {
			return false, err
		}
	}
	return true, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
