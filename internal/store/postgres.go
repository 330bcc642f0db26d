package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/valuehound/ruleone-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store. pgxmock
// implements it, which keeps the Postgres store unit-testable without a
// database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	symbol       TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	exchange     TEXT NOT NULL DEFAULT '',
	sector       TEXT NOT NULL DEFAULT '',
	price        DOUBLE PRECISION,
	change       DOUBLE PRECISION,
	pe_ratio     DOUBLE PRECISION,
	eps          DOUBLE PRECISION,
	refreshed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS financial_years (
	symbol         TEXT NOT NULL REFERENCES companies(symbol),
	year           INTEGER NOT NULL,
	revenue        DOUBLE PRECISION,
	net_income     DOUBLE PRECISION,
	free_cash_flow DOUBLE PRECISION,
	book_value     DOUBLE PRECISION,
	eps            DOUBLE PRECISION,
	roic           DOUBLE PRECISION,
	total_debt     DOUBLE PRECISION,
	PRIMARY KEY (symbol, year)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, company model.Company) error {
	symbol := model.NormalizeSymbol(company.Symbol)
	refreshedAt := company.RefreshedAt
	if refreshedAt.IsZero() {
		refreshedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (symbol, name, exchange, sector, price, change, pe_ratio, eps, refreshed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			sector = EXCLUDED.sector,
			price = EXCLUDED.price,
			change = EXCLUDED.change,
			pe_ratio = EXCLUDED.pe_ratio,
			eps = EXCLUDED.eps,
			refreshed_at = EXCLUDED.refreshed_at`,
		symbol, company.Name, company.Exchange, company.Sector,
		company.Price, company.Change, company.PERatio, company.EPS, refreshedAt,
	)
	return eris.Wrapf(err, "postgres: upsert company %s", symbol)
}

func (s *PostgresStore) GetCompany(ctx context.Context, symbol string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT symbol, name, exchange, sector, price, change, pe_ratio, eps, refreshed_at
		 FROM companies WHERE symbol = $1`,
		model.NormalizeSymbol(symbol),
	)

	var c model.Company
	err := row.Scan(&c.Symbol, &c.Name, &c.Exchange, &c.Sector, &c.Price, &c.Change, &c.PERatio, &c.EPS, &c.RefreshedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", symbol)
	}
	return &c, nil
}

func (s *PostgresStore) UpsertFinancialYears(ctx context.Context, years []model.FinancialYear) error {
	for _, fy := range years {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO financial_years (symbol, year, revenue, net_income, free_cash_flow, book_value, eps, roic, total_debt)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (symbol, year) DO UPDATE SET
				revenue = EXCLUDED.revenue,
				net_income = EXCLUDED.net_income,
				free_cash_flow = EXCLUDED.free_cash_flow,
				book_value = EXCLUDED.book_value,
				eps = EXCLUDED.eps,
				roic = EXCLUDED.roic,
				total_debt = EXCLUDED.total_debt`,
			model.NormalizeSymbol(fy.Symbol), fy.Year,
			fy.Revenue, fy.NetIncome, fy.FreeCashFlow, fy.BookValue, fy.EPS, fy.ROIC, fy.TotalDebt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert year %s/%d", fy.Symbol, fy.Year)
		}
	}
	return nil
}

func (s *PostgresStore) GetFinancialYears(ctx context.Context, symbol string) ([]model.FinancialYear, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT symbol, year, revenue, net_income, free_cash_flow, book_value, eps, roic, total_debt
		 FROM financial_years WHERE symbol = $1 ORDER BY year ASC`,
		model.NormalizeSymbol(symbol),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get years %s", symbol)
	}
	defer rows.Close()

	var years []model.FinancialYear
	for rows.Next() {
		var fy model.FinancialYear
		if err := rows.Scan(&fy.Symbol, &fy.Year, &fy.Revenue, &fy.NetIncome, &fy.FreeCashFlow, &fy.BookValue, &fy.EPS, &fy.ROIC, &fy.TotalDebt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan year")
		}
		years = append(years, fy)
	}
	return years, eris.Wrap(rows.Err(), "postgres: iterate years")
}
