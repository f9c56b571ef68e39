package erp

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mkessler/plantafel/internal/domain"
)

// MySQLProvider implements ResourceProvider and OrderProvider against
// the HUGWAWI schema. The connection is opened against either the live
// or the test host; the caller decides via the DSN.
type MySQLProvider struct {
	db *sql.DB
}

// Connect opens the ERP database. parseTime stays off: HUGWAWI stores
// dates in mixed formats, so date columns are read as strings.
func Connect(dsn string) (*MySQLProvider, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening erp database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging erp database: %w", err)
	}
	return &MySQLProvider{db: db}, nil
}

// NewMySQLProvider wraps an existing handle, mainly for tests.
func NewMySQLProvider(db *sql.DB) *MySQLProvider {
	return &MySQLProvider{db: db}
}

func (p *MySQLProvider) Close() error {
	return p.db.Close()
}

func (p *MySQLProvider) FetchResources(ctx context.Context, typ domain.ResourceType) ([]ResourceRecord, error) {
	var query string
	switch typ {
	case domain.ResourceDepartment:
		query = `SELECT abteilung_id, bezeichnung, NULL, '' FROM abteilungen WHERE geloescht = 0`
	case domain.ResourceMachine:
		query = `SELECT maschinen_id, bezeichnung, abteilung_id, stufe FROM maschinen WHERE geloescht = 0`
	case domain.ResourceEmployee:
		query = `SELECT personal_id, CONCAT(vorname, ' ', nachname), abteilung_id, '' FROM personal WHERE aktiv = 1`
	default:
		return nil, fmt.Errorf("unknown resource type %q", typ)
	}

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetching %s resources: %w", typ, err)
	}
	defer rows.Close()

	var records []ResourceRecord
	for rows.Next() {
		var rec ResourceRecord
		var deptID sql.NullInt64
		var level sql.NullString
		if err := rows.Scan(&rec.ErpID, &rec.Name, &deptID, &level); err != nil {
			return nil, fmt.Errorf("scanning %s resource: %w", typ, err)
		}
		if deptID.Valid {
			id := deptID.Int64
			rec.DepartmentErpID = &id
		}
		rec.Level = level.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s resources: %w", typ, err)
	}
	return records, nil
}

func (p *MySQLProvider) FetchOrder(ctx context.Context, orderID int64) (*Order, error) {
	order := &Order{OrderID: orderID}
	var delivery sql.NullString
	err := p.db.QueryRowContext(ctx,
		`SELECT auftragsnummer, kunde, DATE(liefertermin) FROM auftraege WHERE auftrag_id = ?`,
		orderID).Scan(&order.OrderNumber, &order.Customer, &delivery)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("erp order %d not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching order %d: %w", orderID, err)
	}
	if delivery.Valid && delivery.String != "" {
		order.DeliveryDate = &delivery.String
	}

	if order.Articles, err = p.fetchArticles(ctx, orderID); err != nil {
		return nil, err
	}
	return order, nil
}

func (p *MySQLProvider) fetchArticles(ctx context.Context, orderID int64) ([]OrderArticle, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT auftrag_artikel_id, artikelnummer, bezeichnung, menge
		 FROM auftrag_artikel WHERE auftrag_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetching order articles: %w", err)
	}
	defer rows.Close()

	var articles []OrderArticle
	for rows.Next() {
		var a OrderArticle
		if err := rows.Scan(&a.OrderArticleID, &a.ArticleNumber, &a.Description, &a.Quantity); err != nil {
			return nil, fmt.Errorf("scanning order article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order articles: %w", err)
	}

	for i := range articles {
		if articles[i].BomItems, err = p.fetchBomItems(ctx, articles[i].OrderArticleID); err != nil {
			return nil, err
		}
		if articles[i].Operations, err = p.fetchOperations(ctx, articles[i].OrderArticleID); err != nil {
			return nil, err
		}
	}
	return articles, nil
}

func (p *MySQLProvider) fetchBomItems(ctx context.Context, orderArticleID int64) ([]BomItem, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT stueckliste_detail_id, bezeichnung, menge
		 FROM stueckliste_detail WHERE auftrag_artikel_id = ? ORDER BY position`, orderArticleID)
	if err != nil {
		return nil, fmt.Errorf("fetching bom items: %w", err)
	}
	defer rows.Close()

	var items []BomItem
	for rows.Next() {
		var b BomItem
		if err := rows.Scan(&b.BomDetailID, &b.Name, &b.Quantity); err != nil {
			return nil, fmt.Errorf("scanning bom item: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bom items: %w", err)
	}
	return items, nil
}

func (p *MySQLProvider) fetchOperations(ctx context.Context, orderArticleID int64) ([]Operation, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT arbeitsplan_detail_id, bezeichnung, ruestzeit_min, laufzeit_min, maschinen_id, abteilung_id
		 FROM arbeitsplan_detail WHERE auftrag_artikel_id = ? ORDER BY arbeitsgang_nr`, orderArticleID)
	if err != nil {
		return nil, fmt.Errorf("fetching operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		var machineID, deptID sql.NullInt64
		if err := rows.Scan(&op.WorkplanDetailID, &op.Name, &op.SetupMinutes, &op.RunMinutes, &machineID, &deptID); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if machineID.Valid {
			id := machineID.Int64
			op.MachineErpID = &id
		}
		if deptID.Valid {
			id := deptID.Int64
			op.DepartmentErpID = &id
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return ops, nil
}
