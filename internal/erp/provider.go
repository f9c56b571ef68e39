// Package erp reads resource and order data from the HUGWAWI MySQL
// database. The ERP side is treated as read-mostly: nothing here writes.
package erp

import (
	"context"
	"errors"

	"github.com/mkessler/plantafel/internal/domain"
)

// ResourceRecord is one authoritative ERP resource row, the shape the
// sync pass consumes. Anything conforming to ResourceProvider can back
// the sync; tests use an in-memory fake.
type ResourceRecord struct {
	ErpID           int64
	Name            string
	DepartmentErpID *int64
	Level           string
}

type ResourceProvider interface {
	FetchResources(ctx context.Context, typ domain.ResourceType) ([]ResourceRecord, error)
}

// BomItem is one bill-of-materials line of an order article.
type BomItem struct {
	BomDetailID int64
	Name        string
	Quantity    float64
}

// Operation is one workplan step of an order article.
type Operation struct {
	WorkplanDetailID int64
	Name             string
	SetupMinutes     int
	RunMinutes       int
	MachineErpID     *int64
	DepartmentErpID  *int64
}

// OrderArticle is one article position of an ERP order.
type OrderArticle struct {
	OrderArticleID int64
	ArticleNumber  string
	Description    string
	Quantity       float64
	BomItems       []BomItem
	Operations     []Operation
}

// Order is the fan-out source for bulk todo generation.
type Order struct {
	OrderID      int64
	OrderNumber  string
	Customer     string
	DeliveryDate *string // date only, YYYY-MM-DD, nil when unset
	Articles     []OrderArticle
}

type OrderProvider interface {
	FetchOrder(ctx context.Context, orderID int64) (*Order, error)
}

// AssemblyItem is one row of an imported assembly parts list.
type AssemblyItem struct {
	ArticleNumber string
	Description   string
	Quantity      float64
}

// ErrNotConfigured is returned by Unconfigured when no ERP DSN is set.
var ErrNotConfigured = errors.New("erp connection not configured")

// Unconfigured stands in for the ERP when no DSN is set. Local
// planning keeps working; ERP-backed operations report themselves
// unavailable instead of failing on connect.
type Unconfigured struct{}

func (Unconfigured) FetchResources(context.Context, domain.ResourceType) ([]ResourceRecord, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) FetchOrder(context.Context, int64) (*Order, error) {
	return nil, ErrNotConfigured
}
