package participant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"vendor-chat/internal/errs"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateVendor(ctx context.Context, v *Vendor) (*Vendor, error) {
	v.ID = uuid.New()
	query := `
		INSERT INTO vendors (id, name, email, phone, password, shop_name, shop_category,
			address, city, state, country, business_license_no, gst_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.Name, v.Email, v.Phone, v.Password, v.ShopName, v.ShopCategory,
		v.Address, v.City, v.State, v.Country, nullable(v.BusinessLicenseNo), v.GSTNumber,
	).Scan(&v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repository) GetVendorByEmail(ctx context.Context, email string) (*Vendor, error) {
	query := `
		SELECT id, name, email, phone, password, shop_name, shop_category,
			address, city, state, country, COALESCE(business_license_no, ''), gst_number, created_at
		FROM vendors WHERE email = $1
	`
	return scanVendor(r.db.QueryRowContext(ctx, query, email))
}

func (r *Repository) GetVendorByID(ctx context.Context, id string) (*Vendor, error) {
	query := `
		SELECT id, name, email, phone, password, shop_name, shop_category,
			address, city, state, country, COALESCE(business_license_no, ''), gst_number, created_at
		FROM vendors WHERE id = $1
	`
	return scanVendor(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) ListVendors(ctx context.Context) ([]Vendor, error) {
	query := `
		SELECT id, name, email, phone, password, shop_name, shop_category,
			address, city, state, country, COALESCE(business_license_no, ''), gst_number, created_at
		FROM vendors ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendors := []Vendor{}
	for rows.Next() {
		v, err := scanVendorRow(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, *v)
	}
	return vendors, rows.Err()
}

func (r *Repository) GetAgentByEmail(ctx context.Context, email string) (*Agent, error) {
	a := &Agent{}
	query := `SELECT id, name, email, password, created_at FROM agents WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// DefaultAgent returns the system's single support agent.
func (r *Repository) DefaultAgent(ctx context.Context) (*Agent, error) {
	a := &Agent{}
	query := `SELECT id, name, email, password, created_at FROM agents ORDER BY created_at ASC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query).
		Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *Repository) CountAgents(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents`).Scan(&n)
	return n, err
}

func (r *Repository) CreateAgent(ctx context.Context, a *Agent) (*Agent, error) {
	a.ID = uuid.New()
	query := `INSERT INTO agents (id, name, email, password) VALUES ($1, $2, $3, $4) RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query, a.ID, a.Name, a.Email, a.Password).Scan(&a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row *sql.Row) (*Vendor, error) {
	v, err := scanVendorRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func scanVendorRow(row rowScanner) (*Vendor, error) {
	v := &Vendor{}
	err := row.Scan(
		&v.ID, &v.Name, &v.Email, &v.Phone, &v.Password, &v.ShopName, &v.ShopCategory,
		&v.Address, &v.City, &v.State, &v.Country, &v.BusinessLicenseNo, &v.GSTNumber, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
