package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Mojtabakargaran/identity-service/internal/store"
)

type fakeUsers struct {
	byID map[uuid.UUID]*store.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*store.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) CompleteProfile(ctx context.Context, u *store.User) error {
	cur, ok := f.byID[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.ProfileCompletedAt != nil {
		return store.ErrConflict
	}
	now := time.Now()
	cp := *u
	cp.ProfileCompletedAt = &now
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) SetProfilePhotoURL(ctx context.Context, id uuid.UUID, url string) error {
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.ProfilePhotoURL = &url
	return nil
}

func newService(u *store.User) (*Service, *fakeUsers) {
	users := &fakeUsers{byID: map[uuid.UUID]*store.User{u.ID: u}}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &Service{Users: users, Now: func() time.Time { return now }}, users
}

func validRequest(userID uuid.UUID) CompleteRequest {
	return CompleteRequest{
		UserID:                    userID,
		DateOfBirth:               time.Date(1985, 6, 1, 0, 0, 0, 0, time.UTC),
		Gender:                    "female",
		NationalIDNumber:          "A-1234",
		Nationality:               "IR",
		ProfessionalLicenseNumber: "MD-9",
		MedicalSpecialization:     "cardiology",
		YearsOfExperience:         12,
		EducationalBackground:     "MD",
	}
}

func TestCompleteProfile(t *testing.T) {
	u := &store.User{ID: uuid.New(), Status: store.StatusActive}
	svc, users := newService(u)

	require.NoError(t, svc.Complete(context.Background(), validRequest(u.ID)))
	require.NotNil(t, users.byID[u.ID].ProfileCompletedAt)

	// segundo intento: ya completo
	err := svc.Complete(context.Background(), validRequest(u.ID))
	require.ErrorIs(t, err, ErrAlreadyComplete)
}

func TestCompleteProfileValidations(t *testing.T) {
	u := &store.User{ID: uuid.New(), Status: store.StatusActive}
	svc, _ := newService(u)
	ctx := context.Background()

	req := validRequest(u.ID)
	req.DateOfBirth = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.ErrorIs(t, svc.Complete(ctx, req), ErrFutureDateOfBirth)

	req = validRequest(u.ID)
	req.DateOfBirth = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	require.ErrorIs(t, svc.Complete(ctx, req), ErrInvalidAge)

	req = validRequest(u.ID)
	req.DateOfBirth = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	require.ErrorIs(t, svc.Complete(ctx, req), ErrInvalidAge)

	// justo 18 años cumplidos pasa
	req = validRequest(u.ID)
	req.DateOfBirth = time.Date(2008, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Complete(ctx, req))
}

func TestStatusOf(t *testing.T) {
	now := time.Now()
	u := &store.User{ID: uuid.New(), Status: store.StatusActive, EmailVerifiedAt: &now}
	svc, _ := newService(u)
	ctx := context.Background()

	st, err := svc.StatusOf(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, st.EmailVerified)
	require.False(t, st.ProfileComplete)
	require.False(t, st.PhotoUploaded)

	require.NoError(t, svc.Complete(ctx, validRequest(u.ID)))
	require.NoError(t, svc.AttachPhoto(ctx, u.ID, "https://cdn.test/p.jpg"))

	st, err = svc.StatusOf(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, st.ProfileComplete)
	require.True(t, st.PhotoUploaded)

	_, err = svc.StatusOf(ctx, uuid.New())
	require.ErrorIs(t, err, ErrUserNotFound)
}
