package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budgetbolt/internal/core"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore implements Store on top of database/sql. Queries are written with
// '?' placeholders and rebound for postgres.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLiteStore opens (creating if needed) the database file at dbPath and
// applies pending migrations.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return open("sqlite", dsn, DialectSQLite)
}

// NewPostgresStore connects to databaseURL and applies pending migrations.
func NewPostgresStore(databaseURL string) (*SQLStore, error) {
	return open("postgres", databaseURL, DialectPostgres)
}

func open(driverName, dsn string, dialect Dialect) (*SQLStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driverName, dsn, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect, now: time.Now}, nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites '?' placeholders into the dialect's positional form.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const selectTransaction = `SELECT id, owner_id, kind, amount_cents, occurred_at, description,
	project_id, category_id, is_business, status, payment_method, created_at
	FROM transactions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                    core.Transaction
		kind, status          string
		occurredAt, createdAt int64
		projectID, categoryID sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &kind, &tx.Amount.Cents, &occurredAt, &tx.Description,
		&projectID, &categoryID, &tx.IsBusiness, &status, &tx.PaymentMethod, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Kind = core.Kind(kind)
	tx.Status = core.IncomeStatus(status)
	tx.ProjectID = projectID.String
	tx.CategoryID = categoryID.String
	tx.OccurredAt = time.Unix(occurredAt, 0).UTC()
	tx.CreatedAt = time.Unix(createdAt, 0).UTC()
	return tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLStore) QueryTransactions(ctx context.Context, ownerID string, kind core.Kind, q Query) ([]core.Transaction, error) {
	var (
		where = []string{"owner_id = ?", "kind = ?"}
		args  = []any{ownerID, string(kind)}
	)
	if q.Range != nil {
		if q.Range.From != nil {
			where = append(where, "occurred_at >= ?")
			args = append(args, core.Naive(*q.Range.From).Unix())
		}
		if q.Range.To != nil {
			where = append(where, "occurred_at <= ?")
			args = append(args, core.Naive(*q.Range.To).Unix())
		}
	}
	if q.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, q.ProjectID)
	}
	if q.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, q.CategoryID)
	}
	if q.IsBusiness != nil {
		where = append(where, "is_business = ?")
		args = append(args, *q.IsBusiness)
	}
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}

	query := selectTransaction + " WHERE " + strings.Join(where, " AND ") + " ORDER BY occurred_at DESC, id DESC"
	return s.queryTransactions(ctx, query, args...)
}

func (s *SQLStore) RecentTransactions(ctx context.Context, ownerID string, kind core.Kind, limit int) ([]core.Transaction, error) {
	query := selectTransaction + " WHERE owner_id = ? AND kind = ? ORDER BY occurred_at DESC, id DESC LIMIT ?"
	return s.queryTransactions(ctx, query, ownerID, string(kind), limit)
}

func (s *SQLStore) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectTransaction+" WHERE id = ? AND owner_id = ?"), id, ownerID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (s *SQLStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	tx.OccurredAt = core.Naive(tx.OccurredAt)
	tx.CreatedAt = core.Naive(s.now())

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO transactions
		(id, owner_id, kind, amount_cents, occurred_at, description, project_id, category_id,
		 is_business, status, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		tx.ID, tx.OwnerID, string(tx.Kind), tx.Amount.Cents, tx.OccurredAt.Unix(), tx.Description,
		nullString(tx.ProjectID), nullString(tx.CategoryID), tx.IsBusiness, string(tx.Status),
		tx.PaymentMethod, tx.CreatedAt.Unix())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert %s: %w", tx.Kind, err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents,
		"occurred_at", tx.OccurredAt.Format(time.DateOnly),
		"dialect", s.dialect)

	return tx, nil
}

func (s *SQLStore) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.OccurredAt = core.Naive(tx.OccurredAt)

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE transactions
		SET amount_cents = ?, occurred_at = ?, description = ?, project_id = ?, category_id = ?,
		    is_business = ?, status = ?, payment_method = ?
		WHERE id = ? AND owner_id = ? AND kind = ?`),
		tx.Amount.Cents, tx.OccurredAt.Unix(), tx.Description, nullString(tx.ProjectID), nullString(tx.CategoryID),
		tx.IsBusiness, string(tx.Status), tx.PaymentMethod, tx.ID, tx.OwnerID, string(tx.Kind))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update %s: %w", tx.Kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update %s rows affected: %w", tx.Kind, err)
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("%s %s: %w", tx.Kind, tx.ID, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", tx.ID, "kind", tx.Kind, "amount_cents", tx.Amount.Cents)
	return s.GetTransaction(ctx, tx.OwnerID, tx.ID)
}

func (s *SQLStore) DeleteTransaction(ctx context.Context, ownerID string, kind core.Kind, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM transactions WHERE id = ? AND owner_id = ? AND kind = ?"),
		id, ownerID, string(kind))
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s rows affected: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "kind", kind)
	return nil
}

const selectProject = `SELECT id, owner_id, name, client_name, description, hourly_rate_cents, status, created_at
	FROM projects`

func scanProject(row rowScanner) (core.Project, error) {
	var (
		p         core.Project
		status    string
		rate      sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.ClientName, &p.Description, &rate, &status, &createdAt); err != nil {
		return core.Project{}, err
	}
	if rate.Valid {
		p.HourlyRate = &core.Money{Cents: rate.Int64}
	}
	p.Status = core.ProjectStatus(status)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func (s *SQLStore) GetProject(ctx context.Context, ownerID, projectID string) (core.Project, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectProject+" WHERE id = ? AND owner_id = ?"), projectID, ownerID)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %s: %w", projectID, core.ErrNotFound)
	}
	if err != nil {
		return core.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *SQLStore) ListProjects(ctx context.Context, ownerID string) ([]core.Project, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectProject+" WHERE owner_id = ? ORDER BY name, id"), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]core.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountProjects(ctx context.Context, ownerID string, status core.ProjectStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM projects WHERE owner_id = ? AND status = ?"),
		ownerID, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func (s *SQLStore) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if p.Status == "" {
		p.Status = core.ProjectActive
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = core.Naive(s.now())

	var rate sql.NullInt64
	if p.HourlyRate != nil {
		rate = sql.NullInt64{Int64: p.HourlyRate.Cents, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO projects
		(id, owner_id, name, client_name, description, hourly_rate_cents, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.OwnerID, p.Name, p.ClientName, p.Description, rate, string(p.Status), p.CreatedAt.Unix())
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}

	slog.InfoContext(ctx, "Project saved", "id", p.ID, "name", p.Name, "status", p.Status)
	return p, nil
}

func (s *SQLStore) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	var rate sql.NullInt64
	if p.HourlyRate != nil {
		rate = sql.NullInt64{Int64: p.HourlyRate.Cents, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE projects
		SET name = ?, client_name = ?, description = ?, hourly_rate_cents = ?, status = ?
		WHERE id = ? AND owner_id = ?`),
		p.Name, p.ClientName, p.Description, rate, string(p.Status), p.ID, p.OwnerID)
	if err != nil {
		return core.Project{}, fmt.Errorf("update project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Project{}, fmt.Errorf("project %s: %w", p.ID, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Project updated", "id", p.ID, "status", p.Status)
	return s.GetProject(ctx, p.OwnerID, p.ID)
}

// DeleteProject relies on the project_id foreign key (ON DELETE SET NULL)
// to detach transactions. SQLite enforces it only with foreign_keys on.
func (s *SQLStore) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM projects WHERE id = ? AND owner_id = ?"), projectID, ownerID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", projectID, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Project deleted", "id", projectID)
	return nil
}

const selectCategory = "SELECT id, name, kind, tax_deductible, description FROM categories"

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c    core.Category
		kind string
	)
	if err := row.Scan(&c.ID, &c.Name, &kind, &c.TaxDeductible, &c.Description); err != nil {
		return core.Category{}, err
	}
	c.Kind = core.Kind(kind)
	return c, nil
}

func (s *SQLStore) GetCategory(ctx context.Context, categoryID string) (core.Category, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectCategory+" WHERE id = ?"), categoryID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", categoryID, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *SQLStore) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	query, args := selectCategory+" ORDER BY name", []any{}
	if kind != "" {
		query, args = selectCategory+" WHERE kind = ? ORDER BY name", []any{string(kind)}
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertCategory inserts c or updates the category that already carries
// the same name, returning the stored row.
func (s *SQLStore) UpsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO categories (id, name, name_key, kind, tax_deductible, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name_key) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			tax_deductible = excluded.tax_deductible,
			description = excluded.description
		RETURNING id`),
		c.ID, c.Name, core.CategoryKey(c.Name), string(c.Kind), c.TaxDeductible, c.Description)
	if err := row.Scan(&c.ID); err != nil {
		return core.Category{}, fmt.Errorf("upsert category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved", "id", c.ID, "name", c.Name, "tax_deductible", c.TaxDeductible)
	return c, nil
}
