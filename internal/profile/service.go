// Package profile implementa el paso de onboarding personal/profesional del
// usuario tras su primer login.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Mojtabakargaran/identity-service/internal/events"
	"github.com/Mojtabakargaran/identity-service/internal/store"
)

var (
	ErrAlreadyComplete   = errors.New("profile: already complete")
	ErrFutureDateOfBirth = errors.New("profile: date of birth in the future")
	ErrInvalidAge        = errors.New("profile: age out of range")
	ErrUserNotFound      = errors.New("profile: user not found")
)

const (
	MinAgeYears = 18
	MaxAgeYears = 100
)

type Users interface {
	FindByID(ctx context.Context, id uuid.UUID) (*store.User, error)
	CompleteProfile(ctx context.Context, u *store.User) error
	SetProfilePhotoURL(ctx context.Context, id uuid.UUID, url string) error
}

type Service struct {
	Users  Users
	Events events.Publisher
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CompleteRequest struct {
	UserID                    uuid.UUID
	DateOfBirth               time.Time
	Gender                    string
	NationalIDNumber          string
	Nationality               string
	ProfessionalLicenseNumber string
	MedicalSpecialization     string
	YearsOfExperience         int
	EducationalBackground     string
}

// Complete valida y persiste el perfil. Es un paso único: un perfil ya
// completado no se vuelve a completar por esta vía.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) error {
	events.Emit(ctx, s.Events, events.TopicUser, events.New(events.ProfileCompletionStarted, map[string]any{
		"userId": req.UserID.String(),
	}))

	if err := s.complete(ctx, req); err != nil {
		events.Emit(ctx, s.Events, events.TopicUser, events.New(events.ProfileCompletionFailed, map[string]any{
			"userId": req.UserID.String(),
			"reason": err.Error(),
		}))
		return err
	}

	events.Emit(ctx, s.Events, events.TopicUser, events.New(events.ProfileCompletionCompleted, map[string]any{
		"userId": req.UserID.String(),
	}))
	return nil
}

func (s *Service) complete(ctx context.Context, req CompleteRequest) error {
	now := s.now()
	if req.DateOfBirth.After(now) {
		return ErrFutureDateOfBirth
	}
	age := yearsBetween(req.DateOfBirth, now)
	if age < MinAgeYears || age > MaxAgeYears {
		return ErrInvalidAge
	}

	u, err := s.Users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.ProfileCompletedAt != nil {
		return ErrAlreadyComplete
	}

	u.DateOfBirth = &req.DateOfBirth
	u.Gender = &req.Gender
	u.NationalIDNumber = &req.NationalIDNumber
	u.Nationality = &req.Nationality
	u.ProfessionalLicenseNumber = &req.ProfessionalLicenseNumber
	u.MedicalSpecialization = &req.MedicalSpecialization
	u.YearsOfExperience = &req.YearsOfExperience
	u.EducationalBackground = &req.EducationalBackground

	if err := s.Users.CompleteProfile(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// carrera con otro request del mismo usuario
			return ErrAlreadyComplete
		}
		return err
	}
	return nil
}

// AttachPhoto guarda la URL de la foto de perfil ya subida al storage.
func (s *Service) AttachPhoto(ctx context.Context, userID uuid.UUID, url string) error {
	if err := s.Users.SetProfilePhotoURL(ctx, userID, url); err != nil {
		return err
	}
	events.Emit(ctx, s.Events, events.TopicUser, events.New(events.ProfilePhotoUploaded, map[string]any{
		"userId": userID.String(),
	}))
	return nil
}

// Status devuelve el estado de onboarding del usuario para el dashboard.
type Status struct {
	ProfileComplete bool
	EmailVerified   bool
	PhotoUploaded   bool
}

func (s *Service) StatusOf(ctx context.Context, userID uuid.UUID) (*Status, error) {
	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &Status{
		ProfileComplete: u.ProfileCompletedAt != nil,
		EmailVerified:   u.EmailVerifiedAt != nil,
		PhotoUploaded:   u.ProfilePhotoURL != nil,
	}, nil
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
