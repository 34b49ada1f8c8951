// Package institution implementa los pasos de configuración institucional
// del hospital: perfil (camas, acreditación, horarios) y parámetros
// operativos (zona horaria, moneda, agenda).
package institution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mojtabakargaran/identity-service/internal/store"
)

var (
	ErrNotFound      = errors.New("institution: not configured yet")
	ErrInvalidInput  = errors.New("institution: invalid input")
	ErrUnknownDept   = errors.New("institution: unknown department")
)

type Store interface {
	ListDepartments(ctx context.Context) ([]store.MedicalDepartment, error)
	SaveProfile(ctx context.Context, p *store.InstitutionalProfile) error
	FindProfile(ctx context.Context, tenantID uuid.UUID) (*store.InstitutionalProfile, error)
	SaveOperationalParameters(ctx context.Context, p *store.OperationalParameters, holidays []store.Holiday, visitorHours []store.VisitorHours) error
	FindOperationalParameters(ctx context.Context, tenantID uuid.UUID) (*store.OperationalParameters, error)
	Holidays(ctx context.Context, tenantID uuid.UUID) ([]store.Holiday, error)
	VisitorHours(ctx context.Context, tenantID uuid.UUID) ([]store.VisitorHours, error)
}

type Service struct {
	Store Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) Departments(ctx context.Context) ([]store.MedicalDepartment, error) {
	return s.Store.ListDepartments(ctx)
}

// SaveProfile valida y guarda el perfil institucional del tenant.
func (s *Service) SaveProfile(ctx context.Context, p *store.InstitutionalProfile) error {
	if err := validateProfile(p, s.now()); err != nil {
		return err
	}
	if len(p.DepartmentIDs) > 0 {
		known, err := s.Store.ListDepartments(ctx)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]bool, len(known))
		for _, d := range known {
			byID[d.ID] = true
		}
		for _, id := range p.DepartmentIDs {
			if !byID[id] {
				return fmt.Errorf("%w: %s", ErrUnknownDept, id)
			}
		}
	}
	return s.Store.SaveProfile(ctx, p)
}

func (s *Service) Profile(ctx context.Context, tenantID uuid.UUID) (*store.InstitutionalProfile, error) {
	p, err := s.Store.FindProfile(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// SaveOperationalParameters valida y guarda parámetros, feriados y horarios
// de visita en una operación.
func (s *Service) SaveOperationalParameters(ctx context.Context, p *store.OperationalParameters, holidays []store.Holiday, visitorHours []store.VisitorHours) error {
	if err := validateParameters(p, visitorHours); err != nil {
		return err
	}
	return s.Store.SaveOperationalParameters(ctx, p, holidays, visitorHours)
}

type OperationalView struct {
	Parameters   *store.OperationalParameters
	Holidays     []store.Holiday
	VisitorHours []store.VisitorHours
}

func (s *Service) OperationalParameters(ctx context.Context, tenantID uuid.UUID) (*OperationalView, error) {
	p, err := s.Store.FindOperationalParameters(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	holidays, err := s.Store.Holidays(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	vh, err := s.Store.VisitorHours(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &OperationalView{Parameters: p, Holidays: holidays, VisitorHours: vh}, nil
}

// SetupComplete reporta si ambos pasos institucionales están completos.
func (s *Service) SetupComplete(ctx context.Context, tenantID uuid.UUID) (profileDone, parametersDone bool, err error) {
	if p, perr := s.Store.FindProfile(ctx, tenantID); perr == nil {
		profileDone = p.CompletedAt != nil
	} else if !errors.Is(perr, store.ErrNotFound) {
		return false, false, perr
	}
	if p, perr := s.Store.FindOperationalParameters(ctx, tenantID); perr == nil {
		parametersDone = p.CompletedAt != nil
	} else if !errors.Is(perr, store.ErrNotFound) {
		return false, false, perr
	}
	return profileDone, parametersDone, nil
}

func validateProfile(p *store.InstitutionalProfile, now time.Time) error {
	for name, v := range map[string]*int{
		"total_beds":      p.TotalBeds,
		"icu_beds":        p.ICUBeds,
		"operating_rooms": p.OperatingRooms,
		"emergency_rooms": p.EmergencyRooms,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
		}
	}
	if p.TotalBeds != nil && p.ICUBeds != nil && *p.ICUBeds > *p.TotalBeds {
		return fmt.Errorf("%w: icu_beds exceeds total_beds", ErrInvalidInput)
	}
	if p.EstablishmentDate != nil && p.EstablishmentDate.After(now) {
		return fmt.Errorf("%w: establishment_date in the future", ErrInvalidInput)
	}
	if err := validClock(p.OperatingStart); err != nil {
		return err
	}
	return validClock(p.OperatingEnd)
}

func validateParameters(p *store.OperationalParameters, visitorHours []store.VisitorHours) error {
	if p.FiscalYearStartMonth != nil && (*p.FiscalYearStartMonth < 1 || *p.FiscalYearStartMonth > 12) {
		return fmt.Errorf("%w: fiscal_year_start_month out of range", ErrInvalidInput)
	}
	if p.AppointmentSlotMins != nil && *p.AppointmentSlotMins <= 0 {
		return fmt.Errorf("%w: appointment_slot_mins must be positive", ErrInvalidInput)
	}
	if p.MaxAdvanceBookingDays != nil && *p.MaxAdvanceBookingDays < 0 {
		return fmt.Errorf("%w: max_advance_booking_days must not be negative", ErrInvalidInput)
	}
	for _, v := range visitorHours {
		if err := validClock(&v.StartTime); err != nil {
			return err
		}
		if err := validClock(&v.EndTime); err != nil {
			return err
		}
	}
	return nil
}

// validClock valida "HH:MM" en reloj de 24 horas.
func validClock(s *string) error {
	if s == nil || *s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", *s); err != nil {
		return fmt.Errorf("%w: bad time %q", ErrInvalidInput, *s)
	}
	return nil
}
