package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const medicineColumns = `id, name, stock, reorder_level, reorder_quantity, supplier_price, notification_status, last_restocked, last_reorder_request, created_at, updated_at`

const reorderColumns = `id, medicine_id, quantity, urgency, status, expected_delivery, created_at, updated_at`

// Helpers

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Stock,
		&m.ReorderLevel,
		&m.ReorderQuantity,
		&m.SupplierPrice,
		&m.NotificationStatus,
		&m.LastRestocked,
		&m.LastReorderRequest,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicineNotFound
		}
		return nil, err
	}

	return &m, nil
}

func scanReorder(row pgx.Row) (*ReorderRequest, error) {
	var r ReorderRequest

	err := row.Scan(
		&r.ID,
		&r.MedicineID,
		&r.Quantity,
		&r.Urgency,
		&r.Status,
		&r.ExpectedDelivery,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReorderNotFound
		}
		return nil, err
	}

	return &r, nil
}

// Interface methods

func (r *PgRepository) CreateMedicine(ctx context.Context, m *Medicine) (*Medicine, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO medicines (id, name, stock, reorder_level, reorder_quantity, supplier_price, notification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', now(), now())
		RETURNING `+medicineColumns+`
	`, id, m.Name, m.Stock, m.ReorderLevel, m.ReorderQuantity, m.SupplierPrice)

	return scanMedicine(row)
}

func (r *PgRepository) GetMedicineByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE id = $1
	`, id)
	return scanMedicine(row)
}

func (r *PgRepository) ListBelowReorderLevel(ctx context.Context) ([]Medicine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+medicineColumns+`
		FROM medicines
		WHERE stock <= reorder_level
		ORDER BY stock ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeductStock(ctx context.Context, id uuid.UUID, qty int) (*Medicine, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE medicines
		SET stock = stock - $2,
		    updated_at = now()
		WHERE id = $1
		  AND stock >= $2
		RETURNING `+medicineColumns+`
	`, id, qty)

	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, ErrMedicineNotFound) {
			// Distinguish a missing row from an insufficient one.
			if _, getErr := r.GetMedicineByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrInsufficientStock
		}
		return nil, err
	}
	return m, nil
}

func (r *PgRepository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE medicines
		SET stock = stock + $2,
		    updated_at = now()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}

func (r *PgRepository) ApplyRestock(ctx context.Context, id uuid.UUID, billNo string, at time.Time) (*Medicine, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE medicines
		SET stock = stock + CASE WHEN reorder_quantity > 0 THEN reorder_quantity ELSE $3 END,
		    notification_status = 'restocked',
		    last_restocked = $2,
		    last_reorder_request = NULL,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+medicineColumns+`
	`, id, at, DefaultRestockQuantity)

	m, err := scanMedicine(row)
	if err != nil {
		return nil, err
	}

	qty := m.ReorderQuantity
	if qty <= 0 {
		qty = DefaultRestockQuantity
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO restock_history (medicine_id, date, quantity, total_amount, bill_no, status)
		VALUES ($1, $2, $3, $4, $5, 'restocked')
	`, id, at, qty, float64(qty)*m.SupplierPrice, billNo)
	if err != nil {
		return nil, fmt.Errorf("insert restock history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *PgRepository) ListRestockHistory(ctx context.Context, medicineID uuid.UUID) ([]RestockEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, medicine_id, date, quantity, total_amount, bill_no, status
		FROM restock_history
		WHERE medicine_id = $1
		ORDER BY date DESC
	`, medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RestockEntry
	for rows.Next() {
		var e RestockEntry
		if err := rows.Scan(&e.ID, &e.MedicineID, &e.Date, &e.Quantity, &e.TotalAmount, &e.BillNo, &e.Status); err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreatePendingReorder(ctx context.Context, req *ReorderRequest) (*ReorderRequest, bool, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO reorder_requests (id, medicine_id, quantity, urgency, status, expected_delivery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, now(), now())
		ON CONFLICT DO NOTHING
		RETURNING `+reorderColumns+`
	`, id, req.MedicineID, req.Quantity, req.Urgency, req.ExpectedDelivery)

	created, err := scanReorder(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrReorderNotFound) {
		return nil, false, err
	}

	// Conflict with the pending partial unique index: another request won.
	existing, err := r.GetPendingReorderForMedicine(ctx, req.MedicineID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *PgRepository) GetPendingReorderForMedicine(ctx context.Context, medicineID uuid.UUID) (*ReorderRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reorderColumns+`
		FROM reorder_requests
		WHERE medicine_id = $1 AND status = 'pending'
	`, medicineID)
	return scanReorder(row)
}

func (r *PgRepository) GetReorderByID(ctx context.Context, id uuid.UUID) (*ReorderRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reorderColumns+`
		FROM reorder_requests
		WHERE id = $1
	`, id)
	return scanReorder(row)
}

func (r *PgRepository) ListReordersByStatus(ctx context.Context, status ReorderStatus) ([]ReorderRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reorderColumns+`
		FROM reorder_requests
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReorderRequest
	for rows.Next() {
		req, err := scanReorder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) TransitionReorder(ctx context.Context, id uuid.UUID, to ReorderStatus, updatedBy, notes string) (*ReorderRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE reorder_requests
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status NOT IN ('completed', 'cancelled')
		RETURNING `+reorderColumns+`
	`, id, to)

	updated, err := scanReorder(row)
	if err != nil {
		if errors.Is(err, ErrReorderNotFound) {
			if _, getErr := r.GetReorderByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrAlreadyFinal
		}
		return nil, err
	}

	if to == ReorderCompleted {
		// Exactly once: the CAS above is the only path into completed.
		_, err = tx.Exec(ctx, `
			UPDATE medicines
			SET stock = stock + $2,
			    notification_status = 'restocked',
			    last_restocked = now(),
			    last_reorder_request = NULL,
			    updated_at = now()
			WHERE id = $1
		`, updated.MedicineID, updated.Quantity)
		if err != nil {
			return nil, fmt.Errorf("credit stock on completion: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reorder_history (request_id, status, date, updated_by, notes)
		VALUES ($1, $2, now(), $3, $4)
	`, updated.ID, string(to), updatedBy, notes)
	if err != nil {
		return nil, fmt.Errorf("insert reorder history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PgRepository) AppendReorderHistory(ctx context.Context, entry ReorderHistoryEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reorder_history (request_id, status, date, updated_by, notes)
		VALUES ($1, $2, COALESCE($3, now()), $4, $5)
	`, entry.RequestID, entry.Status, nullableTime(entry.Date), entry.UpdatedBy, entry.Notes)
	if err != nil {
		return fmt.Errorf("insert reorder history: %w", err)
	}
	return nil
}

func (r *PgRepository) ListReorderHistory(ctx context.Context, requestID uuid.UUID) ([]ReorderHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, request_id, status, date, updated_by, notes
		FROM reorder_history
		WHERE request_id = $1
		ORDER BY date ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReorderHistoryEntry
	for rows.Next() {
		var e ReorderHistoryEntry
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Status, &e.Date, &e.UpdatedBy, &e.Notes); err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) MarkReorderRequested(ctx context.Context, medicineID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE medicines
		SET notification_status = 'sent',
		    last_reorder_request = $2,
		    updated_at = now()
		WHERE id = $1
	`, medicineID, at)
	if err != nil {
		return fmt.Errorf("mark reorder requested: %w", err)
	}
	return nil
}

func (r *PgRepository) CreateOrder(ctx context.Context, order *Order) (*Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id := uuid.New()

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, total, status, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, user_id, total, status, created_at
	`, id, order.UserID, order.Total, order.Status)

	var created Order
	if err := row.Scan(&created.ID, &created.UserID, &created.Total, &created.Status, &created.CreatedAt); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, medicine_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, created.ID, item.MedicineID, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	created.Items = order.Items
	return &created, nil
}

func (r *PgRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, total, status, created_at
		FROM orders
		WHERE id = $1
	`, id)

	var o Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT medicine_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.MedicineID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
