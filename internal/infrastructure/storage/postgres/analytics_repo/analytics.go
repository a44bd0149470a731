// Package analytics_repo provides the PostgreSQL implementation of
// analytics.Repository. TxManager is obtained from context.
package analytics_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/domain/analytics"
	"workshop/internal/infrastructure/storage/postgres"
)

const (
	invoiceTable  = "doc_sales_invoices"
	linesTable    = "doc_sales_invoice_lines"
	snapshotTable = "ana_snapshots"
)

var (
	factCols     = postgres.ExtractDBColumns[analytics.InvoiceFact]()
	snapshotCols = postgres.ExtractDBColumns[analytics.Snapshot]()
)

// details is the JSONB payload holding the snapshot child tables.
type details struct {
	MonthlyTrend []analytics.MonthPoint      `json:"monthlyTrend"`
	TopCustomers []analytics.CustomerRevenue `json:"topCustomers"`
	ByItemType   []analytics.ItemTypeRevenue `json:"byItemType"`
}

type snapshotRow struct {
	analytics.Snapshot
	Details []byte `db:"details"`
}

// AnalyticsRepo implements analytics.Repository.
type AnalyticsRepo struct {
	builder squirrel.StatementBuilderType
}

// NewAnalyticsRepo creates a new analytics repository.
func NewAnalyticsRepo() *AnalyticsRepo {
	return &AnalyticsRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ analytics.Repository = (*AnalyticsRepo)(nil)

func (r *AnalyticsRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// invoiceScope selects submitted invoices of the filter. Cancelled invoices
// have docstatus cancelled and drop out here.
func invoiceScope(f analytics.Filter, alias string) squirrel.And {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}
	return squirrel.And{
		squirrel.Eq{
			col("company_id"):    f.CompanyID,
			col("docstatus"):     string(entity.DocStatusSubmitted),
			col("deletion_mark"): false,
		},
		squirrel.GtOrEq{col("date"): f.From},
		squirrel.LtOrEq{col("date"): f.To},
	}
}

func (r *AnalyticsRepo) invoiceFactsQuery(f analytics.Filter) squirrel.SelectBuilder {
	return r.builder.
		Select(factCols...).
		From(invoiceTable).
		Where(invoiceScope(f, "")).
		OrderBy("date", "number")
}

// InvoiceFacts returns the invoice headers of the filter.
func (r *AnalyticsRepo) InvoiceFacts(ctx context.Context, f analytics.Filter) ([]analytics.InvoiceFact, error) {
	sql, args, err := r.invoiceFactsQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	facts := make([]analytics.InvoiceFact, 0)
	if err := pgxscan.Select(ctx, r.getTxManager(ctx).GetQuerier(ctx), &facts, sql, args...); err != nil {
		return nil, fmt.Errorf("invoice facts: %w", err)
	}
	return facts, nil
}

func (r *AnalyticsRepo) lineFactsQuery(f analytics.Filter) squirrel.SelectBuilder {
	return r.builder.
		Select(
			"l.item_type",
			"l.vat_category",
			"SUM(l.net_amount) AS net_amount",
			"SUM(l.vat_amount) AS vat_amount",
		).
		From(linesTable + " l").
		Join(invoiceTable + " d ON d.id = l.document_id").
		Where(invoiceScope(f, "d")).
		GroupBy("l.item_type", "l.vat_category").
		OrderBy("l.item_type", "l.vat_category")
}

// LineFacts aggregates line amounts by item type and VAT category.
func (r *AnalyticsRepo) LineFacts(ctx context.Context, f analytics.Filter) ([]analytics.LineFact, error) {
	sql, args, err := r.lineFactsQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	facts := make([]analytics.LineFact, 0)
	if err := pgxscan.Select(ctx, r.getTxManager(ctx).GetQuerier(ctx), &facts, sql, args...); err != nil {
		return nil, fmt.Errorf("line facts: %w", err)
	}
	return facts, nil
}

// upsertQuery inserts the snapshot or replaces the figures of the existing
// one for (company_id, period). The stored id is returned either way.
func (r *AnalyticsRepo) upsertQuery(s *analytics.Snapshot) (string, []any, error) {
	payload, err := json.Marshal(details{
		MonthlyTrend: s.MonthlyTrend,
		TopCustomers: s.TopCustomers,
		ByItemType:   s.ByItemType,
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal details: %w", err)
	}

	data := postgres.StructToMap(s)
	cols := make([]string, 0, len(snapshotCols)+1)
	values := make([]any, 0, len(snapshotCols)+1)
	for _, c := range snapshotCols {
		cols = append(cols, c)
		values = append(values, data[c])
	}
	cols = append(cols, "details")
	values = append(values, payload)

	keep := map[string]bool{"id": true, "company_id": true, "period": true, "created_at": true, "created_by": true, "version": true}
	updates := make([]string, 0, len(cols))
	for _, c := range cols {
		if keep[c] {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	updates = append(updates, fmt.Sprintf("version = %s.version + 1", snapshotTable))

	return r.builder.
		Insert(snapshotTable).
		Columns(cols...).
		Values(values...).
		Suffix("ON CONFLICT (company_id, period) DO UPDATE SET " + strings.Join(updates, ", ") +
			" RETURNING id, created_at, created_by, version").
		ToSql()
}

// SaveSnapshot inserts or replaces the snapshot of (company, period).
func (r *AnalyticsRepo) SaveSnapshot(ctx context.Context, s *analytics.Snapshot) error {
	sql, args, err := r.upsertQuery(s)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	row := r.getTxManager(ctx).GetQuerier(ctx).QueryRow(ctx, sql, args...)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.CreatedBy, &s.Version); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *AnalyticsRepo) snapshotSelect() squirrel.SelectBuilder {
	return r.builder.
		Select(append(append([]string{}, snapshotCols...), "details")...).
		From(snapshotTable).
		Where(squirrel.Eq{"deletion_mark": false})
}

// GetSnapshot retrieves a snapshot with its child tables.
func (r *AnalyticsRepo) GetSnapshot(ctx context.Context, snapshotID id.ID) (*analytics.Snapshot, error) {
	sql, args, err := r.snapshotSelect().Where(squirrel.Eq{"id": snapshotID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row snapshotRow
	if err := pgxscan.Get(ctx, r.getTxManager(ctx).GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(analytics.SnapshotDocType, snapshotID.String())
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return row.snapshot()
}

// ListSnapshots returns the latest snapshots of a company, newest period
// first.
func (r *AnalyticsRepo) ListSnapshots(ctx context.Context, companyID id.ID, limit int) ([]*analytics.Snapshot, error) {
	q := r.snapshotSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("period_start DESC", "period")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []snapshotRow
	if err := pgxscan.Select(ctx, r.getTxManager(ctx).GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]*analytics.Snapshot, 0, len(rows))
	for i := range rows {
		s, err := rows[i].snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (row *snapshotRow) snapshot() (*analytics.Snapshot, error) {
	s := row.Snapshot
	if len(row.Details) > 0 {
		var d details
		if err := json.Unmarshal(row.Details, &d); err != nil {
			return nil, fmt.Errorf("decode snapshot details: %w", err)
		}
		s.MonthlyTrend = d.MonthlyTrend
		s.TopCustomers = d.TopCustomers
		s.ByItemType = d.ByItemType
	}
	return &s, nil
}
