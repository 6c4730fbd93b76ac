package vendors

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendorhub/vendorhub/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for vendors.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction. Vendor
// onboarding creates the vendor and its portal login atomically.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// Get returns a vendor by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Vendor, error) {
	const query = `SELECT id, name, email, phone, address, contact_person, tax_id, active, created_at, updated_at
	FROM vendors WHERE id = $1`
	var v Vendor
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.Email, &v.Phone, &v.Address, &v.ContactPerson, &v.TaxID, &v.Active, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, ErrNotFound
		}
		return Vendor{}, err
	}
	return v, nil
}

// List returns vendors plus the total count.
func (r *Repository) List(ctx context.Context, limit, offset int, filters ListFilters) ([]Vendor, int, error) {
	countSQL := `SELECT COUNT(*) FROM vendors WHERE 1=1`
	dataSQL := `SELECT id, name, email, phone, address, contact_person, tax_id, active, created_at, updated_at
	FROM vendors WHERE 1=1`

	where := ""
	args := []any{}
	argNum := 1
	if filters.Search != "" {
		where += ` AND (name ILIKE $` + strconv.Itoa(argNum) + ` OR email ILIKE $` + strconv.Itoa(argNum) + `)`
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}
	if filters.Active != nil {
		where += ` AND active = $` + strconv.Itoa(argNum)
		args = append(args, *filters.Active)
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += where + ` ORDER BY ` + vendorSort(filters.SortBy, filters.SortDir) +
		` LIMIT $` + strconv.Itoa(argNum) + ` OFFSET $` + strconv.Itoa(argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.Address, &v.ContactPerson, &v.TaxID, &v.Active, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

// Update writes mutable vendor fields.
func (r *Repository) Update(ctx context.Context, v Vendor) error {
	const query = `UPDATE vendors SET name = $1, email = $2, phone = $3, address = $4,
		contact_person = $5, tax_id = $6, updated_at = NOW()
	WHERE id = $7`
	tag, err := r.pool.Exec(ctx, query, v.Name, v.Email, v.Phone, v.Address, v.ContactPerson, v.TaxID, v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips the active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vendors SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (tx *txRepo) CreateVendor(ctx context.Context, v Vendor) (int64, error) {
	const query = `INSERT INTO vendors (name, email, phone, address, contact_person, tax_id, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
	RETURNING id`
	var id int64
	err := tx.tx.QueryRow(ctx, query, v.Name, v.Email, v.Phone, v.Address, v.ContactPerson, v.TaxID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, err
	}
	return id, nil
}

func (tx *txRepo) CreatePortalUser(ctx context.Context, vendorID int64, email, passwordHash string) (int64, error) {
	const query = `INSERT INTO users (email, password_hash, role, vendor_id, created_at, updated_at)
	VALUES ($1, $2, 'vendor', $3, NOW(), NOW())
	RETURNING id`
	var id int64
	err := tx.tx.QueryRow(ctx, query, email, passwordHash, vendorID).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func vendorSort(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "email":
		return "email " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name ASC"
	}
}
