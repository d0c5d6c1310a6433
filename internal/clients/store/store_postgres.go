package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"turia/internal/clients/models"
	"turia/pkg/platform/sentinel"
	"turia/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

const clientColumns = `id, business_entity, business_name, contact_name, contact_number, email,
	client_code, currency, client_creation_date, gstin, state, gst_registration_type, pincode,
	address, address_line2, gst_registration_date, is_verified, created_at, updated_at`

// PostgresStore persists clients in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction in ctx, if any, else the pool.
func (s *PostgresStore) conn(ctx context.Context) executor {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

// RunInTx runs fn inside a transaction. Store calls made with the context
// passed to fn join it. Nested calls reuse the outer transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, s.db, fn)
}

func (s *PostgresStore) Create(ctx context.Context, c models.Client) error {
	_, err := s.conn(ctx).ExecContext(ctx, `INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		c.ID, string(c.BusinessEntity), c.BusinessName, c.ContactName, c.ContactNumber, c.Email,
		c.ClientCode, c.Currency, c.CreatedOn, c.GSTIN, c.State, c.GSTRegistrationType, c.Pincode,
		c.Address, c.AddressLine2, nullTime(c), c.Verified, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return translate("create client", err)
	}
	return nil
}

// FindByID loads one client. Inside a transaction the row is locked for update.
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	if _, ok := tx.From(ctx); ok {
		query += ` FOR UPDATE`
	}
	c, err := scanClient(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Client{}, sentinel.ErrNotFound
		}
		return models.Client{}, fmt.Errorf("find client by id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, q models.ListQuery) ([]models.Client, int, error) {
	where := ""
	args := []any{}
	if q.Search != "" {
		where = ` WHERE business_name ILIKE $1 OR contact_name ILIKE $1 OR gstin ILIKE $1`
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}

	var total int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM clients%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		clientColumns, where, n+1, n+2)
	rows, err := s.conn(ctx).QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	clients := make([]models.Client, 0, q.Limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, total, nil
}

func (s *PostgresStore) Update(ctx context.Context, c models.Client) error {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE clients SET
		business_entity = $2, business_name = $3, contact_name = $4, contact_number = $5,
		email = $6, client_code = $7, currency = $8, client_creation_date = $9, gstin = $10,
		state = $11, gst_registration_type = $12, pincode = $13, address = $14,
		address_line2 = $15, gst_registration_date = $16, is_verified = $17, updated_at = $18
		WHERE id = $1`,
		c.ID, string(c.BusinessEntity), c.BusinessName, c.ContactName, c.ContactNumber,
		c.Email, c.ClientCode, c.Currency, c.CreatedOn, c.GSTIN,
		c.State, c.GSTRegistrationType, c.Pincode, c.Address,
		c.AddressLine2, nullTime(c), c.Verified, c.UpdatedAt,
	)
	if err != nil {
		return translate("update client", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) (models.Client, error) {
	c, err := scanClient(s.conn(ctx).QueryRowContext(ctx,
		`DELETE FROM clients WHERE id = $1 RETURNING `+clientColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Client{}, sentinel.ErrNotFound
		}
		return models.Client{}, fmt.Errorf("delete client: %w", err)
	}
	return c, nil
}

// Health pings the database.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (models.Client, error) {
	var (
		c       models.Client
		entity  string
		regDate sql.NullTime
	)
	err := row.Scan(
		&c.ID, &entity, &c.BusinessName, &c.ContactName, &c.ContactNumber, &c.Email,
		&c.ClientCode, &c.Currency, &c.CreatedOn, &c.GSTIN, &c.State, &c.GSTRegistrationType, &c.Pincode,
		&c.Address, &c.AddressLine2, &regDate, &c.Verified, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return models.Client{}, err
	}
	c.BusinessEntity = models.BusinessEntity(entity)
	if regDate.Valid {
		t := regDate.Time.UTC()
		c.GSTRegistrationDate = &t
	}
	return c, nil
}

func nullTime(c models.Client) sql.NullTime {
	if c.GSTRegistrationDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *c.GSTRegistrationDate, Valid: true}
}

func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
