package handlers

import (
	"net/http"

	"github.com/Mojtabakargaran/identity-service/internal/http/helpers"
	"github.com/Mojtabakargaran/identity-service/internal/tenant"
)

// Tenant expone el registro de hospitales.
type Tenant struct {
	Svc *tenant.Service
}

type registerRequest struct {
	HospitalName      string `json:"hospital_name"`
	LicenseNumber     string `json:"license_number"`
	AddressStreet     string `json:"address_street"`
	AddressCity       string `json:"address_city"`
	AddressState      string `json:"address_state"`
	AddressPostalCode string `json:"address_postal_code"`
	ContactPhone      string `json:"contact_phone"`
	ContactEmail      string `json:"contact_email"`
	PreferredLanguage string `json:"preferred_language"`

	AdminFullName   string `json:"admin_full_name"`
	AdminEmail      string `json:"admin_email"`
	AdminPhone      string `json:"admin_phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type registerResponse struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	Subdomain string `json:"subdomain"`
	Status    string `json:"status"`
}

// Register maneja POST /api/v1/tenants/register
func (h *Tenant) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.HospitalName == "" || req.AdminEmail == "" || req.Password == "" || req.AdminFullName == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail(
			"hospital_name, admin_full_name, admin_email and password are required"))
		return
	}

	res, err := h.Svc.Register(r.Context(), tenant.RegisterRequest{
		HospitalName:      req.HospitalName,
		LicenseNumber:     req.LicenseNumber,
		AddressStreet:     req.AddressStreet,
		AddressCity:       req.AddressCity,
		AddressState:      req.AddressState,
		AddressPostalCode: req.AddressPostalCode,
		ContactPhone:      req.ContactPhone,
		ContactEmail:      req.ContactEmail,
		PreferredLanguage: req.PreferredLanguage,
		AdminFullName:     req.AdminFullName,
		AdminEmail:        req.AdminEmail,
		AdminPhone:        req.AdminPhone,
		Password:          req.Password,
		ConfirmPassword:   req.ConfirmPassword,
		IP:                helpers.ClientIP(r),
		UserAgent:         r.UserAgent(),
	})
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, registerResponse{
		TenantID:  res.TenantID.String(),
		UserID:    res.UserID.String(),
		Subdomain: res.Subdomain,
		Status:    "pending_verification",
	})
}
