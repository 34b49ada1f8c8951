package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserStore struct{ DB DBOps }

func NewUserStore(db DBOps) *UserStore { return &UserStore{DB: db} }

const userColumns = `
	id, tenant_id, full_name, email, phone_number, password_hash, status,
	email_verified_at, failed_login_attempts, locked_until, last_failed_login_at,
	date_of_birth, gender, national_id_number, nationality,
	professional_license_number, medical_specialization, years_of_experience,
	educational_background, profile_completed_at, profile_photo_url,
	created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.TenantID, &u.FullName, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.Status,
		&u.EmailVerifiedAt, &u.FailedLoginAttempts, &u.LockedUntil, &u.LastFailedLoginAt,
		&u.DateOfBirth, &u.Gender, &u.NationalIDNumber, &u.Nationality,
		&u.ProfessionalLicenseNumber, &u.MedicalSpecialization, &u.YearsOfExperience,
		&u.EducationalBackground, &u.ProfileCompletedAt, &u.ProfilePhotoURL,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserta el usuario. Email duplicado => ErrDuplicateEmail.
func (s *UserStore) Create(ctx context.Context, u *User) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO app_user
		    (id, tenant_id, full_name, email, phone_number, password_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.TenantID, u.FullName, u.Email, u.PhoneNumber, u.PasswordHash, u.Status,
	)
	if err != nil {
		if isUniqueViolation(err, "app_user_email_key") {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE email = $1`, email)
	return scanUser(row)
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id)
	return scanUser(row)
}

// RecordLoginFailure incrementa el contador de forma atómica y bloquea la
// cuenta al llegar al umbral. Devuelve el contador resultante y el
// locked_until resultante (nil si no quedó bloqueada). Nunca read-then-write:
// el incremento y la decisión de bloqueo viven en el mismo UPDATE.
func (s *UserStore) RecordLoginFailure(ctx context.Context, id uuid.UUID, threshold int, lockFor time.Duration) (attempts int, lockedUntil *time.Time, err error) {
	row := s.DB.QueryRow(ctx, `
		UPDATE app_user
		   SET failed_login_attempts = failed_login_attempts + 1,
		       last_failed_login_at  = now(),
		       locked_until = CASE
		           WHEN failed_login_attempts + 1 >= $2
		           THEN now() + ($3 * interval '1 second')
		           ELSE locked_until
		       END,
		       updated_at = now()
		 WHERE id = $1
		 RETURNING failed_login_attempts, locked_until`,
		id, threshold, int64(lockFor.Seconds()),
	)
	if err = row.Scan(&attempts, &lockedUntil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNotFound
		}
		return 0, nil, err
	}
	return attempts, lockedUntil, nil
}

// ResetLockout limpia contador, locked_until y last_failed_login_at.
func (s *UserStore) ResetLockout(ctx context.Context, id uuid.UUID) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE app_user
		   SET failed_login_attempts = 0,
		       locked_until = NULL,
		       last_failed_login_at = NULL,
		       updated_at = now()
		 WHERE id = $1`, id)
	return err
}

// SetEmailVerified marca el email verificado y activa la cuenta.
// Solo transiciona desde pending_verification; devuelve ErrConflict si la
// cuenta ya estaba activa (o en otro estado).
func (s *UserStore) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE app_user
		   SET email_verified_at = now(),
		       status = $2,
		       updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id, StatusActive, StatusPendingVerification)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// UpdatePasswordHash persiste el hash nuevo y resetea lockout en el mismo
// statement (requisito de atomicidad del flujo de reset).
func (s *UserStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, phc string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE app_user
		   SET password_hash = $2,
		       failed_login_attempts = 0,
		       locked_until = NULL,
		       last_failed_login_at = NULL,
		       updated_at = now()
		 WHERE id = $1`, id, phc)
	return err
}

// CompleteProfile persiste los campos de perfil y sella profile_completed_at.
// Falla con ErrConflict si el perfil ya estaba completo.
func (s *UserStore) CompleteProfile(ctx context.Context, u *User) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE app_user
		   SET date_of_birth = $2,
		       gender = $3,
		       national_id_number = $4,
		       nationality = $5,
		       professional_license_number = $6,
		       medical_specialization = $7,
		       years_of_experience = $8,
		       educational_background = $9,
		       profile_completed_at = now(),
		       updated_at = now()
		 WHERE id = $1 AND profile_completed_at IS NULL`,
		u.ID, u.DateOfBirth, u.Gender, u.NationalIDNumber, u.Nationality,
		u.ProfessionalLicenseNumber, u.MedicalSpecialization, u.YearsOfExperience,
		u.EducationalBackground,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *UserStore) SetProfilePhotoURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE app_user SET profile_photo_url = $2, updated_at = now() WHERE id = $1`,
		id, url)
	return err
}
