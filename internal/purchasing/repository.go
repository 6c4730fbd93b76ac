package purchasing

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendorhub/vendorhub/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for purchase orders.
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

// Get returns a purchase order and its line items.
func (r *Repository) Get(ctx context.Context, id int64) (PurchaseOrder, []LineItem, error) {
	const query = `SELECT o.id, o.number, o.vendor_id, COALESCE(v.name, ''), o.status, o.total,
		o.order_date, o.notes, COALESCE(o.bill_id, 0), COALESCE(o.document_id, 0), o.created_by, o.created_at, o.updated_at
	FROM purchase_orders o
	LEFT JOIN vendors v ON v.id = o.vendor_id
	WHERE o.id = $1`
	var order PurchaseOrder
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.Number, &order.VendorID, &order.VendorName, &status, &order.Total,
		&order.OrderDate, &order.Notes, &order.BillID, &order.DocumentID, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrNotFound
		}
		return PurchaseOrder{}, nil, err
	}
	order.Status = Status(status)

	rows, err := r.pool.Query(ctx, `SELECT id, order_id, description, quantity, unit_price FROM purchase_order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Description, &item.Quantity, &item.UnitPrice); err != nil {
			return PurchaseOrder{}, nil, err
		}
		items = append(items, item)
	}
	return order, items, rows.Err()
}

// List returns live purchase orders with vendor names and the total count.
// Cancelled orders only appear when explicitly filtered for.
func (r *Repository) List(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error) {
	countSQL := `SELECT COUNT(*) FROM purchase_orders o WHERE 1=1`
	dataSQL := `SELECT o.id, o.number, o.vendor_id, COALESCE(v.name, '') AS vendor_name, o.status, o.total,
		o.order_date, o.notes, COALESCE(o.bill_id, 0), COALESCE(o.document_id, 0), o.created_by, o.created_at, o.updated_at
	FROM purchase_orders o
	LEFT JOIN vendors v ON v.id = o.vendor_id
	WHERE 1=1`

	where := ""
	args := []any{}
	argNum := 1
	if filters.Status != "" {
		where += ` AND o.status = $` + strconv.Itoa(argNum)
		args = append(args, filters.Status)
		argNum++
	} else {
		where += ` AND o.status <> 'CANCELLED'`
	}
	if filters.VendorID > 0 {
		where += ` AND o.vendor_id = $` + strconv.Itoa(argNum)
		args = append(args, filters.VendorID)
		argNum++
	}
	if filters.Search != "" {
		where += ` AND o.number ILIKE $` + strconv.Itoa(argNum)
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL += where + ` ORDER BY ` + orderSort(filters.SortBy, filters.SortDir) +
		` LIMIT $` + strconv.Itoa(argNum) + ` OFFSET $` + strconv.Itoa(argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var order PurchaseOrder
		var status string
		if err := rows.Scan(&order.ID, &order.Number, &order.VendorID, &order.VendorName, &status, &order.Total,
			&order.OrderDate, &order.Notes, &order.BillID, &order.DocumentID, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, 0, err
		}
		order.Status = Status(status)
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

// SetDocument links a generated document to a purchase order.
func (r *Repository) SetDocument(ctx context.Context, orderID, documentID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchase_orders SET document_id = $1, updated_at = NOW() WHERE id = $2`, documentID, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (tx *txRepo) CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error) {
	const query = `INSERT INTO purchase_orders (number, vendor_id, status, total, order_date, notes, created_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	RETURNING id`
	var id int64
	err := tx.tx.QueryRow(ctx, query,
		order.Number, order.VendorID, string(order.Status), order.Total, order.OrderDate, order.Notes, order.CreatedBy,
	).Scan(&id)
	return id, err
}

func (tx *txRepo) InsertLineItem(ctx context.Context, item LineItem) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO purchase_order_items (order_id, description, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
		item.OrderID, item.Description, item.Quantity, item.UnitPrice)
	return err
}

func (tx *txRepo) DeleteLineItems(ctx context.Context, orderID int64) error {
	_, err := tx.tx.Exec(ctx, `DELETE FROM purchase_order_items WHERE order_id = $1`, orderID)
	return err
}

func (tx *txRepo) UpdateOrder(ctx context.Context, order PurchaseOrder) error {
	var billID pgtype.Int8
	if order.BillID != 0 {
		billID = pgtype.Int8{Int64: order.BillID, Valid: true}
	}
	const query = `UPDATE purchase_orders SET status = $1, total = $2, order_date = $3, notes = $4, bill_id = $5, updated_at = NOW()
	WHERE id = $6`
	tag, err := tx.tx.Exec(ctx, query,
		string(order.Status), order.Total, order.OrderDate, order.Notes, billID, order.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (tx *txRepo) DeleteOrder(ctx context.Context, orderID int64) error {
	if _, err := tx.tx.Exec(ctx, `DELETE FROM purchase_order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	tag, err := tx.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func orderSort(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "number":
		return "o.number " + dir
	case "vendor":
		return "vendor_name " + dir
	case "order_date":
		return "o.order_date " + dir
	case "total":
		return "o.total " + dir
	case "status":
		return "o.status " + dir
	default:
		return "o.created_at DESC"
	}
}
