package institution

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Mojtabakargaran/identity-service/internal/store"
)

type fakeStore struct {
	departments []store.MedicalDepartment
	profiles    map[uuid.UUID]*store.InstitutionalProfile
	params      map[uuid.UUID]*store.OperationalParameters
	holidays    map[uuid.UUID][]store.Holiday
	visitors    map[uuid.UUID][]store.VisitorHours
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: map[uuid.UUID]*store.InstitutionalProfile{},
		params:   map[uuid.UUID]*store.OperationalParameters{},
		holidays: map[uuid.UUID][]store.Holiday{},
		visitors: map[uuid.UUID][]store.VisitorHours{},
	}
}

func (f *fakeStore) ListDepartments(ctx context.Context) ([]store.MedicalDepartment, error) {
	return f.departments, nil
}

func (f *fakeStore) SaveProfile(ctx context.Context, p *store.InstitutionalProfile) error {
	now := time.Now()
	if prev, ok := f.profiles[p.TenantID]; ok {
		p.CompletedAt = prev.CompletedAt
	} else {
		p.CompletedAt = &now
	}
	f.profiles[p.TenantID] = p
	return nil
}

func (f *fakeStore) FindProfile(ctx context.Context, tenantID uuid.UUID) (*store.InstitutionalProfile, error) {
	p, ok := f.profiles[tenantID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) SaveOperationalParameters(ctx context.Context, p *store.OperationalParameters, holidays []store.Holiday, visitorHours []store.VisitorHours) error {
	now := time.Now()
	if prev, ok := f.params[p.TenantID]; ok {
		p.CompletedAt = prev.CompletedAt
	} else {
		p.CompletedAt = &now
	}
	f.params[p.TenantID] = p
	f.holidays[p.TenantID] = holidays
	f.visitors[p.TenantID] = visitorHours
	return nil
}

func (f *fakeStore) FindOperationalParameters(ctx context.Context, tenantID uuid.UUID) (*store.OperationalParameters, error) {
	p, ok := f.params[tenantID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) Holidays(ctx context.Context, tenantID uuid.UUID) ([]store.Holiday, error) {
	return f.holidays[tenantID], nil
}

func (f *fakeStore) VisitorHours(ctx context.Context, tenantID uuid.UUID) ([]store.VisitorHours, error) {
	return f.visitors[tenantID], nil
}

func intp(v int) *int          { return &v }
func strp(v string) *string    { return &v }

func TestSaveProfileValidations(t *testing.T) {
	fs := newFakeStore()
	svc := &Service{Store: fs}
	ctx := context.Background()
	tenantID := uuid.New()

	p := &store.InstitutionalProfile{TenantID: tenantID, TotalBeds: intp(-1)}
	require.ErrorIs(t, svc.SaveProfile(ctx, p), ErrInvalidInput)

	p = &store.InstitutionalProfile{TenantID: tenantID, TotalBeds: intp(10), ICUBeds: intp(20)}
	require.ErrorIs(t, svc.SaveProfile(ctx, p), ErrInvalidInput)

	p = &store.InstitutionalProfile{TenantID: tenantID, OperatingStart: strp("25:00")}
	require.ErrorIs(t, svc.SaveProfile(ctx, p), ErrInvalidInput)

	dep := uuid.New()
	p = &store.InstitutionalProfile{TenantID: tenantID, DepartmentIDs: []uuid.UUID{dep}}
	require.ErrorIs(t, svc.SaveProfile(ctx, p), ErrUnknownDept)

	fs.departments = []store.MedicalDepartment{{ID: dep, NameEn: "Cardiology", IsActive: true}}
	p = &store.InstitutionalProfile{
		TenantID:       tenantID,
		TotalBeds:      intp(120),
		ICUBeds:        intp(12),
		OperatingStart: strp("08:00"),
		OperatingEnd:   strp("20:00"),
		DepartmentIDs:  []uuid.UUID{dep},
	}
	require.NoError(t, svc.SaveProfile(ctx, p))

	got, err := svc.Profile(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{dep}, got.DepartmentIDs)
	require.NotNil(t, got.CompletedAt)
}

func TestSaveOperationalParameters(t *testing.T) {
	fs := newFakeStore()
	svc := &Service{Store: fs}
	ctx := context.Background()
	tenantID := uuid.New()

	p := &store.OperationalParameters{TenantID: tenantID, FiscalYearStartMonth: intp(13)}
	require.ErrorIs(t, svc.SaveOperationalParameters(ctx, p, nil, nil), ErrInvalidInput)

	p = &store.OperationalParameters{TenantID: tenantID, AppointmentSlotMins: intp(0)}
	require.ErrorIs(t, svc.SaveOperationalParameters(ctx, p, nil, nil), ErrInvalidInput)

	p = &store.OperationalParameters{
		TenantID:             tenantID,
		Timezone:             strp("Asia/Tehran"),
		FiscalYearStartMonth: intp(3),
		AppointmentSlotMins:  intp(20),
	}
	holidays := []store.Holiday{{TenantID: tenantID, Name: "Nowruz", Date: time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC)}}
	vh := []store.VisitorHours{{TenantID: tenantID, AreaType: "icu", StartTime: "16:00", EndTime: "17:00"}}
	require.NoError(t, svc.SaveOperationalParameters(ctx, p, holidays, vh))

	view, err := svc.OperationalParameters(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, view.Holidays, 1)
	require.Len(t, view.VisitorHours, 1)

	_, err = svc.OperationalParameters(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetupComplete(t *testing.T) {
	fs := newFakeStore()
	svc := &Service{Store: fs}
	ctx := context.Background()
	tenantID := uuid.New()

	profileDone, paramsDone, err := svc.SetupComplete(ctx, tenantID)
	require.NoError(t, err)
	require.False(t, profileDone)
	require.False(t, paramsDone)

	require.NoError(t, svc.SaveProfile(ctx, &store.InstitutionalProfile{TenantID: tenantID}))
	require.NoError(t, svc.SaveOperationalParameters(ctx, &store.OperationalParameters{TenantID: tenantID}, nil, nil))

	profileDone, paramsDone, err = svc.SetupComplete(ctx, tenantID)
	require.NoError(t, err)
	require.True(t, profileDone)
	require.True(t, paramsDone)
}
