package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantStore struct{ DB DBOps }

func NewTenantStore(db DBOps) *TenantStore { return &TenantStore{DB: db} }

const tenantColumns = `
	id, hospital_name, subdomain, license_number, address_street, address_city,
	address_state, address_postal_code, contact_phone, contact_email,
	preferred_language, created_at, updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID, &t.HospitalName, &t.Subdomain, &t.LicenseNumber,
		&t.AddressStreet, &t.AddressCity, &t.AddressState, &t.AddressPostalCode,
		&t.ContactPhone, &t.ContactEmail, &t.PreferredLanguage,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Create inserta el tenant. Nombre de hospital o subdominio duplicado
// se reporta como ErrDuplicateName.
func (s *TenantStore) Create(ctx context.Context, t *Tenant) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO tenant
		    (id, hospital_name, subdomain, license_number, address_street,
		     address_city, address_state, address_postal_code, contact_phone,
		     contact_email, preferred_language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.HospitalName, t.Subdomain, t.LicenseNumber, t.AddressStreet,
		t.AddressCity, t.AddressState, t.AddressPostalCode, t.ContactPhone,
		t.ContactEmail, t.PreferredLanguage,
	)
	if err != nil {
		if isUniqueViolation(err, "tenant_hospital_name_key") || isUniqueViolation(err, "tenant_subdomain_key") {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

func (s *TenantStore) FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenant WHERE id = $1`, id)
	return scanTenant(row)
}

func (s *TenantStore) FindByName(ctx context.Context, hospitalName string) (*Tenant, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenant WHERE hospital_name = $1`, hospitalName)
	return scanTenant(row)
}
