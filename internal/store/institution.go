package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InstitutionStore persiste el perfil institucional del hospital, sus
// parámetros operativos y las tablas satélite (departamentos, feriados,
// horarios de visita). Una fila por tenant en cada tabla principal.
type InstitutionStore struct{ DB DBOps }

func NewInstitutionStore(db DBOps) *InstitutionStore { return &InstitutionStore{DB: db} }

// ListDepartments devuelve el catálogo de departamentos médicos activos.
func (s *InstitutionStore) ListDepartments(ctx context.Context) ([]MedicalDepartment, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name_en, name_fa, is_active
		  FROM medical_department
		 WHERE is_active
		 ORDER BY name_en`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MedicalDepartment
	for rows.Next() {
		var d MedicalDepartment
		if err := rows.Scan(&d.ID, &d.NameEn, &d.NameFa, &d.IsActive); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveProfile guarda el perfil institucional y reemplaza los vínculos a
// departamentos, todo en una transacción. Marca completed_at al primer
// guardado y lo preserva en los siguientes.
func (s *InstitutionStore) SaveProfile(ctx context.Context, p *InstitutionalProfile) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO hospital_institutional_profile
		    (id, tenant_id, hospital_type, total_beds, icu_beds, operating_rooms,
		     emergency_rooms, establishment_date, website_url, accreditation_status,
		     accreditation_body, accreditation_expiry, operating_start, operating_end,
		     emergency_available, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		ON CONFLICT (tenant_id) DO UPDATE
		   SET hospital_type = EXCLUDED.hospital_type,
		       total_beds = EXCLUDED.total_beds,
		       icu_beds = EXCLUDED.icu_beds,
		       operating_rooms = EXCLUDED.operating_rooms,
		       emergency_rooms = EXCLUDED.emergency_rooms,
		       establishment_date = EXCLUDED.establishment_date,
		       website_url = EXCLUDED.website_url,
		       accreditation_status = EXCLUDED.accreditation_status,
		       accreditation_body = EXCLUDED.accreditation_body,
		       accreditation_expiry = EXCLUDED.accreditation_expiry,
		       operating_start = EXCLUDED.operating_start,
		       operating_end = EXCLUDED.operating_end,
		       emergency_available = EXCLUDED.emergency_available,
		       updated_at = now()
		RETURNING id, completed_at`,
		p.ID, p.TenantID, p.HospitalType, p.TotalBeds, p.ICUBeds, p.OperatingRooms,
		p.EmergencyRooms, p.EstablishmentDate, p.WebsiteURL, p.AccreditationStatus,
		p.AccreditationBody, p.AccreditationExpiry, p.OperatingStart, p.OperatingEnd,
		p.EmergencyAvailable,
	).Scan(&p.ID, &p.CompletedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM hospital_department WHERE tenant_id = $1`, p.TenantID); err != nil {
		return err
	}
	for _, depID := range p.DepartmentIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO hospital_department (tenant_id, department_id)
			VALUES ($1, $2)`, p.TenantID, depID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *InstitutionStore) FindProfile(ctx context.Context, tenantID uuid.UUID) (*InstitutionalProfile, error) {
	var p InstitutionalProfile
	err := s.DB.QueryRow(ctx, `
		SELECT id, tenant_id, hospital_type, total_beds, icu_beds, operating_rooms,
		       emergency_rooms, establishment_date, website_url, accreditation_status,
		       accreditation_body, accreditation_expiry, operating_start, operating_end,
		       emergency_available, completed_at, updated_at
		  FROM hospital_institutional_profile
		 WHERE tenant_id = $1`, tenantID,
	).Scan(&p.ID, &p.TenantID, &p.HospitalType, &p.TotalBeds, &p.ICUBeds,
		&p.OperatingRooms, &p.EmergencyRooms, &p.EstablishmentDate, &p.WebsiteURL,
		&p.AccreditationStatus, &p.AccreditationBody, &p.AccreditationExpiry,
		&p.OperatingStart, &p.OperatingEnd, &p.EmergencyAvailable,
		&p.CompletedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT department_id FROM hospital_department WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		p.DepartmentIDs = append(p.DepartmentIDs, id)
	}
	return &p, rows.Err()
}

// SaveOperationalParameters guarda los parámetros operativos junto con
// feriados y horarios de visita en una sola transacción.
func (s *InstitutionStore) SaveOperationalParameters(ctx context.Context, p *OperationalParameters, holidays []Holiday, visitorHours []VisitorHours) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO hospital_operational_parameters
		    (id, tenant_id, timezone, fiscal_year_start_month, default_currency,
		     appointment_slot_mins, max_advance_booking_days, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (tenant_id) DO UPDATE
		   SET timezone = EXCLUDED.timezone,
		       fiscal_year_start_month = EXCLUDED.fiscal_year_start_month,
		       default_currency = EXCLUDED.default_currency,
		       appointment_slot_mins = EXCLUDED.appointment_slot_mins,
		       max_advance_booking_days = EXCLUDED.max_advance_booking_days,
		       updated_at = now()
		RETURNING id, completed_at`,
		p.ID, p.TenantID, p.Timezone, p.FiscalYearStartMonth, p.DefaultCurrency,
		p.AppointmentSlotMins, p.MaxAdvanceBookingDays,
	).Scan(&p.ID, &p.CompletedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tenant_holiday WHERE tenant_id = $1`, p.TenantID); err != nil {
		return err
	}
	for _, h := range holidays {
		id := h.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO tenant_holiday (id, tenant_id, name, holiday_date)
			VALUES ($1, $2, $3, $4)`, id, p.TenantID, h.Name, h.Date); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM visitor_hours WHERE tenant_id = $1`, p.TenantID); err != nil {
		return err
	}
	for _, v := range visitorHours {
		id := v.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO visitor_hours (id, tenant_id, area_type, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)`, id, p.TenantID, v.AreaType, v.StartTime, v.EndTime); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *InstitutionStore) FindOperationalParameters(ctx context.Context, tenantID uuid.UUID) (*OperationalParameters, error) {
	var p OperationalParameters
	err := s.DB.QueryRow(ctx, `
		SELECT id, tenant_id, timezone, fiscal_year_start_month, default_currency,
		       appointment_slot_mins, max_advance_booking_days, completed_at, updated_at
		  FROM hospital_operational_parameters
		 WHERE tenant_id = $1`, tenantID,
	).Scan(&p.ID, &p.TenantID, &p.Timezone, &p.FiscalYearStartMonth,
		&p.DefaultCurrency, &p.AppointmentSlotMins, &p.MaxAdvanceBookingDays,
		&p.CompletedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *InstitutionStore) Holidays(ctx context.Context, tenantID uuid.UUID) ([]Holiday, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, tenant_id, name, holiday_date
		  FROM tenant_holiday
		 WHERE tenant_id = $1
		 ORDER BY holiday_date`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holiday
	for rows.Next() {
		var h Holiday
		if err := rows.Scan(&h.ID, &h.TenantID, &h.Name, &h.Date); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *InstitutionStore) VisitorHours(ctx context.Context, tenantID uuid.UUID) ([]VisitorHours, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, tenant_id, area_type, start_time, end_time
		  FROM visitor_hours
		 WHERE tenant_id = $1
		 ORDER BY area_type`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VisitorHours
	for rows.Next() {
		var v VisitorHours
		if err := rows.Scan(&v.ID, &v.TenantID, &v.AreaType, &v.StartTime, &v.EndTime); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
