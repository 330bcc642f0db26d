package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/valuehound/ruleone-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	symbol       TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	exchange     TEXT NOT NULL DEFAULT '',
	sector       TEXT NOT NULL DEFAULT '',
	price        REAL,
	change       REAL,
	pe_ratio     REAL,
	eps          REAL,
	refreshed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS financial_years (
	symbol         TEXT NOT NULL REFERENCES companies(symbol),
	year           INTEGER NOT NULL,
	revenue        REAL,
	net_income     REAL,
	free_cash_flow REAL,
	book_value     REAL,
	eps            REAL,
	roic           REAL,
	total_debt     REAL,
	PRIMARY KEY (symbol, year)
);

CREATE INDEX IF NOT EXISTS idx_financial_years_symbol ON financial_years(symbol);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, company model.Company) error {
	symbol := model.NormalizeSymbol(company.Symbol)
	refreshedAt := company.RefreshedAt
	if refreshedAt.IsZero() {
		refreshedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (symbol, name, exchange, sector, price, change, pe_ratio, eps, refreshed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (symbol) DO UPDATE SET
			name = excluded.name,
			exchange = excluded.exchange,
			sector = excluded.sector,
			price = excluded.price,
			change = excluded.change,
			pe_ratio = excluded.pe_ratio,
			eps = excluded.eps,
			refreshed_at = excluded.refreshed_at`,
		symbol, company.Name, company.Exchange, company.Sector,
		nullable(company.Price), nullable(company.Change),
		nullable(company.PERatio), nullable(company.EPS), refreshedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert company %s", symbol)
}

func (s *SQLiteStore) GetCompany(ctx context.Context, symbol string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT symbol, name, exchange, sector, price, change, pe_ratio, eps, refreshed_at
		 FROM companies WHERE symbol = ?`,
		model.NormalizeSymbol(symbol),
	)

	var c model.Company
	var price, change, peRatio, eps sql.NullFloat64
	err := row.Scan(&c.Symbol, &c.Name, &c.Exchange, &c.Sector, &price, &change, &peRatio, &eps, &c.RefreshedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", symbol)
	}
	c.Price = fromNullable(price)
	c.Change = fromNullable(change)
	c.PERatio = fromNullable(peRatio)
	c.EPS = fromNullable(eps)
	return &c, nil
}

func (s *SQLiteStore) UpsertFinancialYears(ctx context.Context, years []model.FinancialYear) error {
	if len(years) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert years")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, fy := range years {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO financial_years (symbol, year, revenue, net_income, free_cash_flow, book_value, eps, roic, total_debt)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (symbol, year) DO UPDATE SET
				revenue = excluded.revenue,
				net_income = excluded.net_income,
				free_cash_flow = excluded.free_cash_flow,
				book_value = excluded.book_value,
				eps = excluded.eps,
				roic = excluded.roic,
				total_debt = excluded.total_debt`,
			model.NormalizeSymbol(fy.Symbol), fy.Year,
			nullable(fy.Revenue), nullable(fy.NetIncome), nullable(fy.FreeCashFlow),
			nullable(fy.BookValue), nullable(fy.EPS), nullable(fy.ROIC), nullable(fy.TotalDebt),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert year %s/%d", fy.Symbol, fy.Year)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit upsert years")
}

func (s *SQLiteStore) GetFinancialYears(ctx context.Context, symbol string) ([]model.FinancialYear, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, year, revenue, net_income, free_cash_flow, book_value, eps, roic, total_debt
		 FROM financial_years WHERE symbol = ? ORDER BY year ASC`,
		model.NormalizeSymbol(symbol),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get years %s", symbol)
	}
	defer rows.Close()

	var years []model.FinancialYear
	for rows.Next() {
		var fy model.FinancialYear
		var revenue, netIncome, fcf, bookValue, eps, roic, totalDebt sql.NullFloat64
		if err := rows.Scan(&fy.Symbol, &fy.Year, &revenue, &netIncome, &fcf, &bookValue, &eps, &roic, &totalDebt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan year")
		}
		fy.Revenue = fromNullable(revenue)
		fy.NetIncome = fromNullable(netIncome)
		fy.FreeCashFlow = fromNullable(fcf)
		fy.BookValue = fromNullable(bookValue)
		fy.EPS = fromNullable(eps)
		fy.ROIC = fromNullable(roic)
		fy.TotalDebt = fromNullable(totalDebt)
		years = append(years, fy)
	}
	return years, eris.Wrap(rows.Err(), "sqlite: iterate years")
}

// helpers

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
