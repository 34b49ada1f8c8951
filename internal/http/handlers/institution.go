package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Mojtabakargaran/identity-service/internal/http/helpers"
	"github.com/Mojtabakargaran/identity-service/internal/http/middlewares"
	"github.com/Mojtabakargaran/identity-service/internal/institution"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

// Institution expone el perfil institucional y los parámetros operativos.
type Institution struct {
	Svc *institution.Service
}

type institutionalProfileDTO struct {
	HospitalType        *string  `json:"hospital_type"`
	TotalBeds           *int     `json:"total_beds"`
	ICUBeds             *int     `json:"icu_beds"`
	OperatingRooms      *int     `json:"operating_rooms"`
	EmergencyRooms      *int     `json:"emergency_rooms"`
	EstablishmentDate   *string  `json:"establishment_date"` // YYYY-MM-DD
	WebsiteURL          *string  `json:"website_url"`
	AccreditationStatus *string  `json:"accreditation_status"`
	AccreditationBody   *string  `json:"accreditation_body"`
	AccreditationExpiry *string  `json:"accreditation_expiry"` // YYYY-MM-DD
	OperatingStart      *string  `json:"operating_start"`      // HH:MM
	OperatingEnd        *string  `json:"operating_end"`
	EmergencyAvailable  *bool    `json:"emergency_available"`
	DepartmentIDs       []string `json:"department_ids"`
	Completed           bool     `json:"completed"`
}

// GetProfile maneja GET /api/v1/institutional-profile
func (h *Institution) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}
	p, err := h.Svc.Profile(r.Context(), sess.TenantID)
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, profileToDTO(p))
}

// PutProfile maneja PUT /api/v1/institutional-profile (owner/admin)
func (h *Institution) PutProfile(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}

	var dto institutionalProfileDTO
	if !helpers.ReadJSON(w, r, &dto) {
		return
	}
	p, err := dtoToProfile(&dto, sess.TenantID)
	if err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if err := h.Svc.SaveProfile(r.Context(), p); err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, profileToDTO(p))
}

type departmentDTO struct {
	ID     string `json:"id"`
	NameEn string `json:"name_en"`
	NameFa string `json:"name_fa"`
}

// Departments maneja GET /api/v1/institutional-profile/departments
func (h *Institution) Departments(w http.ResponseWriter, r *http.Request) {
	deps, err := h.Svc.Departments(r.Context())
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	out := make([]departmentDTO, 0, len(deps))
	for _, d := range deps {
		out = append(out, departmentDTO{ID: d.ID.String(), NameEn: d.NameEn, NameFa: d.NameFa})
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"departments": out})
}

type holidayDTO struct {
	Name string `json:"name"`
	Date string `json:"date"` // YYYY-MM-DD
}

type visitorHoursDTO struct {
	AreaType  string `json:"area_type"`
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`
}

type operationalParametersDTO struct {
	Timezone              *string           `json:"timezone"`
	FiscalYearStartMonth  *int              `json:"fiscal_year_start_month"`
	DefaultCurrency       *string           `json:"default_currency"`
	AppointmentSlotMins   *int              `json:"appointment_slot_mins"`
	MaxAdvanceBookingDays *int              `json:"max_advance_booking_days"`
	Holidays              []holidayDTO      `json:"holidays"`
	VisitorHours          []visitorHoursDTO `json:"visitor_hours"`
	Completed             bool              `json:"completed"`
}

// GetParameters maneja GET /api/v1/operational-parameters
func (h *Institution) GetParameters(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}
	view, err := h.Svc.OperationalParameters(r.Context(), sess.TenantID)
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}

	dto := operationalParametersDTO{
		Timezone:              view.Parameters.Timezone,
		FiscalYearStartMonth:  view.Parameters.FiscalYearStartMonth,
		DefaultCurrency:       view.Parameters.DefaultCurrency,
		AppointmentSlotMins:   view.Parameters.AppointmentSlotMins,
		MaxAdvanceBookingDays: view.Parameters.MaxAdvanceBookingDays,
		Completed:             view.Parameters.CompletedAt != nil,
		Holidays:              make([]holidayDTO, 0, len(view.Holidays)),
		VisitorHours:          make([]visitorHoursDTO, 0, len(view.VisitorHours)),
	}
	for _, hd := range view.Holidays {
		dto.Holidays = append(dto.Holidays, holidayDTO{Name: hd.Name, Date: hd.Date.Format("2006-01-02")})
	}
	for _, vh := range view.VisitorHours {
		dto.VisitorHours = append(dto.VisitorHours, visitorHoursDTO{
			AreaType: vh.AreaType, StartTime: vh.StartTime, EndTime: vh.EndTime,
		})
	}
	helpers.WriteJSON(w, http.StatusOK, dto)
}

// PutParameters maneja PUT /api/v1/operational-parameters (owner/admin)
func (h *Institution) PutParameters(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}

	var dto operationalParametersDTO
	if !helpers.ReadJSON(w, r, &dto) {
		return
	}

	p := &store.OperationalParameters{
		TenantID:              sess.TenantID,
		Timezone:              dto.Timezone,
		FiscalYearStartMonth:  dto.FiscalYearStartMonth,
		DefaultCurrency:       dto.DefaultCurrency,
		AppointmentSlotMins:   dto.AppointmentSlotMins,
		MaxAdvanceBookingDays: dto.MaxAdvanceBookingDays,
	}
	holidays := make([]store.Holiday, 0, len(dto.Holidays))
	for _, hd := range dto.Holidays {
		day, err := time.Parse("2006-01-02", hd.Date)
		if err != nil {
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("holiday date must be YYYY-MM-DD"))
			return
		}
		holidays = append(holidays, store.Holiday{TenantID: sess.TenantID, Name: hd.Name, Date: day})
	}
	visitors := make([]store.VisitorHours, 0, len(dto.VisitorHours))
	for _, vh := range dto.VisitorHours {
		visitors = append(visitors, store.VisitorHours{
			TenantID: sess.TenantID, AreaType: vh.AreaType,
			StartTime: vh.StartTime, EndTime: vh.EndTime,
		})
	}

	if err := h.Svc.SaveOperationalParameters(r.Context(), p, holidays, visitors); err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func profileToDTO(p *store.InstitutionalProfile) *institutionalProfileDTO {
	dto := &institutionalProfileDTO{
		HospitalType:        p.HospitalType,
		TotalBeds:           p.TotalBeds,
		ICUBeds:             p.ICUBeds,
		OperatingRooms:      p.OperatingRooms,
		EmergencyRooms:      p.EmergencyRooms,
		WebsiteURL:          p.WebsiteURL,
		AccreditationStatus: p.AccreditationStatus,
		AccreditationBody:   p.AccreditationBody,
		OperatingStart:      p.OperatingStart,
		OperatingEnd:        p.OperatingEnd,
		EmergencyAvailable:  p.EmergencyAvailable,
		Completed:           p.CompletedAt != nil,
		DepartmentIDs:       make([]string, 0, len(p.DepartmentIDs)),
	}
	if p.EstablishmentDate != nil {
		s := p.EstablishmentDate.Format("2006-01-02")
		dto.EstablishmentDate = &s
	}
	if p.AccreditationExpiry != nil {
		s := p.AccreditationExpiry.Format("2006-01-02")
		dto.AccreditationExpiry = &s
	}
	for _, id := range p.DepartmentIDs {
		dto.DepartmentIDs = append(dto.DepartmentIDs, id.String())
	}
	return dto
}

func dtoToProfile(dto *institutionalProfileDTO, tenantID uuid.UUID) (*store.InstitutionalProfile, error) {
	p := &store.InstitutionalProfile{
		TenantID:            tenantID,
		HospitalType:        dto.HospitalType,
		TotalBeds:           dto.TotalBeds,
		ICUBeds:             dto.ICUBeds,
		OperatingRooms:      dto.OperatingRooms,
		EmergencyRooms:      dto.EmergencyRooms,
		WebsiteURL:          dto.WebsiteURL,
		AccreditationStatus: dto.AccreditationStatus,
		AccreditationBody:   dto.AccreditationBody,
		OperatingStart:      dto.OperatingStart,
		OperatingEnd:        dto.OperatingEnd,
		EmergencyAvailable:  dto.EmergencyAvailable,
	}
	if dto.EstablishmentDate != nil && *dto.EstablishmentDate != "" {
		d, err := time.Parse("2006-01-02", *dto.EstablishmentDate)
		if err != nil {
			return nil, err
		}
		p.EstablishmentDate = &d
	}
	if dto.AccreditationExpiry != nil && *dto.AccreditationExpiry != "" {
		d, err := time.Parse("2006-01-02", *dto.AccreditationExpiry)
		if err != nil {
			return nil, err
		}
		p.AccreditationExpiry = &d
	}
	for _, raw := range dto.DepartmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		p.DepartmentIDs = append(p.DepartmentIDs, id)
	}
	return p, nil
}
