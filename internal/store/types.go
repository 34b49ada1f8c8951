package store

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	StatusPendingVerification UserStatus = "pending_verification"
	StatusActive              UserStatus = "active"
	StatusSuspended           UserStatus = "suspended"
)

type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reporta si el rol pertenece a la enumeración cerrada.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

type Tenant struct {
	ID                uuid.UUID
	HospitalName      string
	Subdomain         string
	LicenseNumber     string
	AddressStreet     string
	AddressCity       string
	AddressState      string
	AddressPostalCode string
	ContactPhone      string
	ContactEmail      string
	PreferredLanguage string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	FullName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Status       UserStatus

	EmailVerifiedAt *time.Time

	// Lockout
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastFailedLoginAt   *time.Time

	// Perfil personal/profesional (paso de onboarding)
	DateOfBirth               *time.Time
	Gender                    *string
	NationalIDNumber          *string
	Nationality               *string
	ProfessionalLicenseNumber *string
	MedicalSpecialization     *string
	YearsOfExperience         *int
	EducationalBackground     *string
	ProfileCompletedAt        *time.Time
	ProfilePhotoURL           *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reporta si la cuenta está bloqueada en el instante dado.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

type UserRole struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Role       Role
	AssignedAt time.Time
	AssignedBy *uuid.UUID
}

type TokenKind string

const (
	TokenEmailVerify   TokenKind = "email_verify"
	TokenPasswordReset TokenKind = "password_reset"
)

// TokenInfo es la vista de un token single-use para validación sin consumirlo.
type TokenInfo struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	SentTo    string
	ExpiresAt time.Time
	UsedAt    *time.Time
}

type MedicalDepartment struct {
	ID       uuid.UUID
	NameEn   string
	NameFa   string
	IsActive bool
}

type InstitutionalProfile struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	HospitalType        *string
	TotalBeds           *int
	ICUBeds             *int
	OperatingRooms      *int
	EmergencyRooms      *int
	EstablishmentDate   *time.Time
	WebsiteURL          *string
	AccreditationStatus *string
	AccreditationBody   *string
	AccreditationExpiry *time.Time
	OperatingStart      *string // "HH:MM"
	OperatingEnd        *string
	EmergencyAvailable  *bool
	DepartmentIDs       []uuid.UUID
	CompletedAt         *time.Time
	UpdatedAt           time.Time
}

type OperationalParameters struct {
	ID                    uuid.UUID
	TenantID              uuid.UUID
	Timezone              *string
	FiscalYearStartMonth  *int
	DefaultCurrency       *string
	AppointmentSlotMins   *int
	MaxAdvanceBookingDays *int
	CompletedAt           *time.Time
	UpdatedAt             time.Time
}

type Holiday struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Date     time.Time
}

type VisitorHours struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	AreaType  string
	StartTime string // "HH:MM"
	EndTime   string
}
