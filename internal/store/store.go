package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Sentinel errors surfaced by the storage layer.
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrShippingMethodNotFound = errors.New("shipping method not found")
	ErrDuplicateEvent         = errors.New("audit event already recorded")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]*models.Product, error) {
	if len(ids) == 0 {
		return map[int64]*models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}

	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}
	return productMap, nil
}

// GetShippingMethod retrieves a shipping method by ID
func (s *Store) GetShippingMethod(ctx context.Context, id int64) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	err := s.db.GetContext(ctx, &method, "SELECT * FROM shipping_methods WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrShippingMethodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

// GetTaxRule retrieves the tax rule for a region
func (s *Store) GetTaxRule(ctx context.Context, region string) (*models.TaxRule, error) {
	var rule models.TaxRule
	err := s.db.GetContext(ctx, &rule, "SELECT * FROM tax_rules WHERE region = $1", region)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// GetCustomerByID retrieves a customer by ID
func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// SetCustomerGatewayRef stores the gateway-side stored-payment-method
// reference for a customer.
func (s *Store) SetCustomerGatewayRef(ctx context.Context, customerID int64, ref string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE customers SET gateway_customer_ref = $1 WHERE id = $2",
		ref, customerID)
	return err
}
