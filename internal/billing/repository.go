package billing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendorhub/vendorhub/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for bills.
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

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// queryer is satisfied by both the pool and a transaction, so bill reads
// can run standalone or inside an update transaction.
type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// GetBill returns a bill and its line items.
func (r *Repository) GetBill(ctx context.Context, id int64) (Bill, []LineItem, error) {
	return getBill(ctx, r.pool, id)
}

func (tx *txRepo) GetBill(ctx context.Context, id int64) (Bill, []LineItem, error) {
	return getBill(ctx, tx.tx, id)
}

func getBill(ctx context.Context, q queryer, id int64) (Bill, []LineItem, error) {
	const query = `SELECT id, number, vendor_id, COALESCE(purchase_order_id, 0), total, issue_date, due_date,
		workflow_status, payment_status, notes, COALESCE(document_id, 0), created_by, created_at, updated_at
	FROM bills WHERE id = $1`
	var bill Bill
	var workflow, payment string
	err := q.QueryRow(ctx, query, id).Scan(
		&bill.ID, &bill.Number, &bill.VendorID, &bill.PurchaseOrderID, &bill.Total,
		&bill.IssueDate, &bill.DueDate, &workflow, &payment, &bill.Notes,
		&bill.DocumentID, &bill.CreatedBy, &bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, nil, ErrNotFound
		}
		return Bill{}, nil, err
	}
	bill.WorkflowStatus = WorkflowStatus(workflow)
	bill.PaymentStatus = PaymentStatus(payment)

	rows, err := q.Query(ctx, `SELECT id, bill_id, description, quantity, unit_price FROM bill_items WHERE bill_id = $1 ORDER BY id`, id)
	if err != nil {
		return Bill{}, nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.Description, &item.Quantity, &item.UnitPrice); err != nil {
			return Bill{}, nil, err
		}
		items = append(items, item)
	}
	return bill, items, rows.Err()
}

// ListBills returns bills joined with vendor names, plus the total count.
func (r *Repository) ListBills(ctx context.Context, limit, offset int, filters ListFilters) ([]BillListItem, int, error) {
	countSQL := `SELECT COUNT(*) FROM bills b WHERE 1=1`
	dataSQL := `SELECT b.id, b.number, b.vendor_id, COALESCE(v.name, '') AS vendor_name,
		b.total, b.issue_date, b.due_date, b.workflow_status, b.payment_status, b.created_at
	FROM bills b
	LEFT JOIN vendors v ON v.id = b.vendor_id
	WHERE 1=1`

	where := ""
	args := []any{}
	argNum := 1
	if filters.VendorID > 0 {
		where += ` AND b.vendor_id = $` + strconv.Itoa(argNum)
		args = append(args, filters.VendorID)
		argNum++
	}
	if filters.WorkflowStatus != "" {
		where += ` AND b.workflow_status = $` + strconv.Itoa(argNum)
		args = append(args, filters.WorkflowStatus)
		argNum++
	}
	if filters.PaymentStatus != "" {
		where += ` AND b.payment_status = $` + strconv.Itoa(argNum)
		args = append(args, filters.PaymentStatus)
		argNum++
	}
	if filters.Search != "" {
		where += ` AND b.number ILIKE $` + strconv.Itoa(argNum)
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir) +
		` LIMIT $` + strconv.Itoa(argNum) + ` OFFSET $` + strconv.Itoa(argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []BillListItem
	for rows.Next() {
		var item BillListItem
		var workflow, payment string
		if err := rows.Scan(&item.ID, &item.Number, &item.VendorID, &item.VendorName,
			&item.Total, &item.IssueDate, &item.DueDate, &workflow, &payment, &item.CreatedAt); err != nil {
			return nil, 0, err
		}
		item.WorkflowStatus = WorkflowStatus(workflow)
		item.PaymentStatus = PaymentStatus(payment)
		items = append(items, item)
	}
	return items, total, rows.Err()
}

// ListOverdueCandidates returns unpaid bills past their due date that are
// still in a workflow status the overdue scan may move.
func (r *Repository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]Bill, error) {
	const query = `SELECT id, number, vendor_id, workflow_status, payment_status, due_date
	FROM bills
	WHERE workflow_status IN ('ISSUED', 'SENT')
	  AND payment_status IN ('UNPAID', 'REFUNDED')
	  AND due_date < $1
	ORDER BY due_date`
	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bills []Bill
	for rows.Next() {
		var bill Bill
		var workflow, payment string
		if err := rows.Scan(&bill.ID, &bill.Number, &bill.VendorID, &workflow, &payment, &bill.DueDate); err != nil {
			return nil, err
		}
		bill.WorkflowStatus = WorkflowStatus(workflow)
		bill.PaymentStatus = PaymentStatus(payment)
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

// SetDocument links a generated document to a bill.
func (r *Repository) SetDocument(ctx context.Context, billID, documentID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE bills SET document_id = $1, updated_at = NOW() WHERE id = $2`, documentID, billID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (tx *txRepo) CreateBill(ctx context.Context, bill Bill) (int64, error) {
	var poID pgtype.Int8
	if bill.PurchaseOrderID != 0 {
		poID = pgtype.Int8{Int64: bill.PurchaseOrderID, Valid: true}
	}
	const query = `INSERT INTO bills (number, vendor_id, purchase_order_id, total, issue_date, due_date,
		workflow_status, payment_status, notes, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	RETURNING id`
	var id int64
	err := tx.tx.QueryRow(ctx, query,
		bill.Number, bill.VendorID, poID, bill.Total, bill.IssueDate, bill.DueDate,
		string(bill.WorkflowStatus), string(bill.PaymentStatus), bill.Notes, bill.CreatedBy,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateNumber
		}
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (tx *txRepo) InsertLineItem(ctx context.Context, item LineItem) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO bill_items (bill_id, description, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
		item.BillID, item.Description, item.Quantity, item.UnitPrice)
	return err
}

func (tx *txRepo) DeleteLineItems(ctx context.Context, billID int64) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID)
	return err
}

func (tx *txRepo) UpdateBill(ctx context.Context, bill Bill) error {
	const query = `UPDATE bills SET total = $1, issue_date = $2, due_date = $3,
		workflow_status = $4, payment_status = $5, notes = $6, updated_at = NOW()
	WHERE id = $7`
	tag, err := tx.tx.Exec(ctx, query,
		bill.Total, bill.IssueDate, bill.DueDate,
		string(bill.WorkflowStatus), string(bill.PaymentStatus), bill.Notes, bill.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "number":
		return "b.number " + dir
	case "vendor":
		return "vendor_name " + dir
	case "due_date":
		return "b.due_date " + dir
	case "total":
		return "b.total " + dir
	case "workflow_status":
		return "b.workflow_status " + dir
	default:
		return "b.created_at DESC"
	}
}
