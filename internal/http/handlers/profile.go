package handlers

import (
	"net/http"
	"time"

	"github.com/Mojtabakargaran/identity-service/internal/http/helpers"
	"github.com/Mojtabakargaran/identity-service/internal/http/middlewares"
	"github.com/Mojtabakargaran/identity-service/internal/institution"
	"github.com/Mojtabakargaran/identity-service/internal/profile"
)

// Profile expone el onboarding personal del usuario y el dashboard.
type Profile struct {
	Svc         *profile.Service
	Institution *institution.Service
}

type completeProfileRequest struct {
	DateOfBirth               string `json:"date_of_birth"` // YYYY-MM-DD
	Gender                    string `json:"gender"`
	NationalIDNumber          string `json:"national_id_number"`
	Nationality               string `json:"nationality"`
	ProfessionalLicenseNumber string `json:"professional_license_number"`
	MedicalSpecialization     string `json:"medical_specialization"`
	YearsOfExperience         int    `json:"years_of_experience"`
	EducationalBackground     string `json:"educational_background"`
}

// Complete maneja POST /api/v1/profile/complete (requiere sesión)
func (h *Profile) Complete(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}

	var req completeProfileRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("date_of_birth must be YYYY-MM-DD"))
		return
	}

	err = h.Svc.Complete(r.Context(), profile.CompleteRequest{
		UserID:                    sess.AccountID,
		DateOfBirth:               dob,
		Gender:                    req.Gender,
		NationalIDNumber:          req.NationalIDNumber,
		Nationality:               req.Nationality,
		ProfessionalLicenseNumber: req.ProfessionalLicenseNumber,
		MedicalSpecialization:     req.MedicalSpecialization,
		YearsOfExperience:         req.YearsOfExperience,
		EducationalBackground:     req.EducationalBackground,
	})
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "profile_completed"})
}

type photoRequest struct {
	URL string `json:"url"`
}

// AttachPhoto maneja POST /api/v1/profile/photo (requiere sesión)
func (h *Profile) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}
	var req photoRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("url is required"))
		return
	}
	if err := h.Svc.AttachPhoto(r.Context(), sess.AccountID, req.URL); err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "photo_attached"})
}

type dashboardResponse struct {
	EmailVerified        bool `json:"email_verified"`
	ProfileComplete      bool `json:"profile_complete"`
	PhotoUploaded        bool `json:"photo_uploaded"`
	InstitutionalProfile bool `json:"institutional_profile_complete"`
	OperationalSetup     bool `json:"operational_parameters_complete"`
}

// Dashboard maneja GET /api/v1/dashboard (requiere sesión). Agrega el estado
// de onboarding personal e institucional en una sola vista.
func (h *Profile) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		helpers.WriteError(w, helpers.ErrUnauthorized)
		return
	}

	st, err := h.Svc.StatusOf(r.Context(), sess.AccountID)
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}
	profileDone, paramsDone, err := h.Institution.SetupComplete(r.Context(), sess.TenantID)
	if err != nil {
		helpers.WriteError(w, helpers.FromDomain(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dashboardResponse{
		EmailVerified:        st.EmailVerified,
		ProfileComplete:      st.ProfileComplete,
		PhotoUploaded:        st.PhotoUploaded,
		InstitutionalProfile: profileDone,
		OperationalSetup:     paramsDone,
	})
}
