package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/invoice-assistant/internal/domain/entity"
	"github.com/jhoicas/invoice-assistant/internal/domain/repository"
)

var _ repository.InvoiceQuery = (*InvoiceQueryRepo)(nil)

// InvoiceQueryRepo adaptador de solo lectura sobre las tablas invoices / invoice_details.
type InvoiceQueryRepo struct {
	runner *TxRunner
}

// NewInvoiceQueryRepository construye el adaptador.
func NewInvoiceQueryRepository(runner *TxRunner) *InvoiceQueryRepo {
	return &InvoiceQueryRepo{runner: runner}
}

const invoiceColumns = `
	SELECT
	    i.id::TEXT,
	    i.invoice_number,
	    COALESCE(i.client_name, ''),
	    i.issue_date,
	    i.due_date,
	    COALESCE(i.status, ''),
	    COALESCE(i.currency, ''),
	    COALESCE(i.total_amount, 0),
	    COALESCE(i.paid_amount, 0),
	    COALESCE(i.salesperson, ''),
	    COALESCE(i.branch, '')
	FROM invoices i`

const detailsQuery = `
	SELECT
	    d.id::TEXT,
	    d.invoice_id::TEXT,
	    COALESCE(d.item_sku, ''),
	    COALESCE(d.item_name, ''),
	    d.quantity,
	    COALESCE(d.unit_price, 0)
	FROM invoice_details d
	WHERE d.invoice_id::TEXT = ANY($1)
	ORDER BY d.invoice_id, d.id`

// Query devuelve las facturas que cumplen el filtro, ordenadas por fecha de emisión y número.
// TopN no limita filas: la agrupación por cliente la hace el asistente.
func (r *InvoiceQueryRepo) Query(ctx context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var invoices []*entity.Invoice
	err := r.runner.ReadOnly(ctx, func(q Querier) error {
		var err error
		invoices, err = queryInvoices(ctx, q, filter)
		if err != nil || !filter.WithDetails || len(invoices) == 0 {
			return err
		}
		return loadDetails(ctx, q, invoices)
	})
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func queryInvoices(ctx context.Context, q Querier, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	query, args := buildInvoiceQuery(filter)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoices.Query: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		inv := &entity.Invoice{}
		if err := rows.Scan(
			&inv.ID,
			&inv.Number,
			&inv.ClientName,
			&inv.IssueDate,
			&inv.DueDate,
			&inv.Status,
			&inv.Currency,
			&inv.TotalAmount,
			&inv.PaidAmount,
			&inv.Salesperson,
			&inv.Branch,
		); err != nil {
			return nil, fmt.Errorf("invoices.Query scan: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoices.Query rows: %w", err)
	}
	return invoices, nil
}

func loadDetails(ctx context.Context, q Querier, invoices []*entity.Invoice) error {
	byID := make(map[string]*entity.Invoice, len(invoices))
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
		ids = append(ids, inv.ID)
	}

	rows, err := q.Query(ctx, detailsQuery, ids)
	if err != nil {
		return fmt.Errorf("invoices.Details: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d := &entity.InvoiceDetail{}
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.ItemSKU, &d.ItemName, &d.Quantity, &d.UnitPrice); err != nil {
			return fmt.Errorf("invoices.Details scan: %w", err)
		}
		if inv, ok := byID[d.InvoiceID]; ok {
			inv.Details = append(inv.Details, d)
		}
	}
	return rows.Err()
}

// whereClause acumula condiciones con placeholders posicionales ($1, $2...).
type whereClause struct {
	conds []string
	args  []any
}

// add cond lleva un único %d que se sustituye por el número del placeholder.
func (w *whereClause) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

// buildInvoiceQuery arma el SELECT con un WHERE dinámico. Los campos vacíos del filtro no filtran.
func buildInvoiceQuery(f repository.InvoiceFilter) (string, []any) {
	w := &whereClause{}
	if f.From != nil {
		w.add("i.issue_date >= $%d", *f.From)
	}
	if f.To != nil {
		w.add("i.issue_date <= $%d", *f.To)
	}
	if s := strings.TrimSpace(f.InvoiceNumber); s != "" {
		w.add("i.invoice_number = $%d", s)
	}
	if s := strings.TrimSpace(f.ClientName); s != "" {
		w.add("i.client_name ILIKE $%d", containsPattern(s))
	}
	if s := strings.TrimSpace(f.Salesperson); s != "" {
		w.add("i.salesperson ILIKE $%d", containsPattern(s))
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		w.add("LOWER(i.status) = LOWER($%d)", s)
	}
	if s := strings.TrimSpace(f.Currency); s != "" {
		w.add("UPPER(i.currency) = UPPER($%d)", s)
	}
	if f.MinAmount != nil {
		w.add("i.total_amount >= $%d", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		w.add("i.total_amount <= $%d", *f.MaxAmount)
	}
	if s := strings.TrimSpace(f.Branch); s != "" {
		w.add("i.branch = $%d", s)
	}
	if s := strings.TrimSpace(f.ItemSKU); s != "" {
		w.add("EXISTS (SELECT 1 FROM invoice_details d WHERE d.invoice_id = i.id AND d.item_sku = $%d)", s)
	}
	if f.OverdueOnly && !f.AsOf.IsZero() {
		w.add("i.due_date IS NOT NULL AND i.due_date < $%d AND LOWER(COALESCE(i.status, '')) <> 'paid'", f.AsOf)
	}

	var sb strings.Builder
	sb.WriteString(invoiceColumns)
	if len(w.conds) > 0 {
		sb.WriteString("\n\tWHERE ")
		sb.WriteString(strings.Join(w.conds, "\n\t  AND "))
	}
	sb.WriteString("\n\tORDER BY i.issue_date, i.invoice_number")
	return sb.String(), w.args
}
