package applications

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/ledger"
	"github.com/lockerhub/lockerhub-backend/internal/lockers"
	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/internal/stores"
	"github.com/lockerhub/lockerhub-backend/internal/users"
	"github.com/lockerhub/lockerhub-backend/pkg/config"
	"github.com/lockerhub/lockerhub-backend/pkg/db/dbtest"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
	"github.com/lockerhub/lockerhub-backend/pkg/metrics"
)

type workflowFixture struct {
	conn     *gorm.DB
	svc      Service
	lockers  lockers.Service
	registry *prometheus.Registry
	store    *models.Store
	user     *models.User
	admin    policy.Principal
	userP    policy.Principal
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	conn, client := dbtest.Open(t)

	lockerRepo := lockers.NewRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)
	usersRepo := users.NewRepository(conn)
	storesRepo := stores.NewRepository(conn)
	assigner := lockers.NewAssigner(lockerRepo, ledgerRepo)
	registry := prometheus.NewRegistry()
	wm := metrics.NewWorkflowMetrics(registry)

	svc, err := NewService(ServiceParams{
		Tx:           client,
		Applications: NewRepository(conn),
		Users:        usersRepo,
		Stores:       storesRepo,
		Assigner:     assigner,
		Config:       config.ApplicationsConfig{DefaultRejectionReason: "Application rejected by administrator"},
		Metrics:      wm,
		Logger:       logger.Nop(),
	})
	require.NoError(t, err)

	lockerSvc, err := lockers.NewService(lockers.ServiceParams{
		Tx:       client,
		Lockers:  lockerRepo,
		Ledger:   ledgerRepo,
		Users:    usersRepo,
		Stores:   storesRepo,
		Metrics:  wm,
		Assigner: assigner,
	})
	require.NoError(t, err)

	store := dbtest.SeedStore(t, conn)
	user := dbtest.SeedUser(t, conn, &store.ID)
	admin := dbtest.SeedAdmin(t, conn, enums.AdminRoleStoreAdmin, &store.ID)

	return &workflowFixture{
		conn:     conn,
		svc:      svc,
		lockers:  lockerSvc,
		registry: registry,
		store:    store,
		user:     user,
		admin:    policy.Admin(admin.ID, admin.Role, admin.StoreID),
		userP:    policy.User(user.ID),
	}
}

func (f *workflowFixture) submit(t *testing.T) *ApplicationDTO {
	t.Helper()
	purpose := "gym bag"
	app, err := f.svc.Submit(context.Background(), f.userP, SubmitInput{StoreID: f.store.ID, Purpose: &purpose})
	require.NoError(t, err)
	return app
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	assert.Equal(t, code, typed.Code(), "message: %s", typed.Message())
}

// counterValue reads one labelled counter straight from the registry.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if labelsContain(m, label) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsContain(m *dto.Metric, value string) bool {
	for _, pair := range m.GetLabel() {
		if pair.GetValue() == value {
			return true
		}
	}
	return false
}

func countRecords(t *testing.T, conn *gorm.DB, lockerID uuid.UUID, action enums.LockerRecordAction) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.LockerRecord{}).
		Where("locker_id = ? AND action = ?", lockerID, action).
		Count(&n).Error)
	return n
}

func TestSubmitCreatesPendingApplication(t *testing.T) {
	f := newWorkflowFixture(t)
	app := f.submit(t)

	assert.Equal(t, enums.ApplicationStatusPending, app.Status)
	assert.True(t, app.IsPending)
	assert.Equal(t, f.user.ID, app.UserID)
	require.NotNil(t, app.Purpose)
	assert.Equal(t, "gym bag", *app.Purpose)
	assert.Equal(t, 1.0, counterValue(t, f.registry, "lockerhub_application_transitions_total", "pending"))
}

func TestSubmitTwiceConflicts(t *testing.T) {
	f := newWorkflowFixture(t)
	f.submit(t)

	_, err := f.svc.Submit(context.Background(), f.userP, SubmitInput{StoreID: f.store.ID})
	requireCode(t, err, pkgerrors.CodeConflict)
	assert.Contains(t, pkgerrors.As(err).Message(), "already has a pending application")

	var pending int64
	require.NoError(t, f.conn.Model(&models.Application{}).
		Where("user_id = ? AND status = ?", f.user.ID, enums.ApplicationStatusPending).
		Count(&pending).Error)
	assert.EqualValues(t, 1, pending)
}

func TestSubmitRejectsAdminsAndInactiveStores(t *testing.T) {
	f := newWorkflowFixture(t)

	_, err := f.svc.Submit(context.Background(), f.admin, SubmitInput{StoreID: f.store.ID})
	requireCode(t, err, pkgerrors.CodeForbidden)

	require.NoError(t, f.conn.Model(&models.Store{}).Where("id = ?", f.store.ID).
		Update("status", enums.StoreStatusInactive).Error)
	_, err = f.svc.Submit(context.Background(), f.userP, SubmitInput{StoreID: f.store.ID})
	requireCode(t, err, pkgerrors.CodeInvalidState)
}

func TestSubmitWithAssignedLockerConflicts(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	locker := dbtest.SeedLocker(t, f.conn, f.store.ID, "1")

	_, err := f.lockers.Assign(ctx, f.admin, locker.ID, f.user.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.userP, SubmitInput{StoreID: f.store.ID})
	requireCode(t, err, pkgerrors.CodeConflict)
	assert.Equal(t, "user already has an assigned locker", pkgerrors.As(err).Message())

	var apps int64
	require.NoError(t, f.conn.Model(&models.Application{}).Where("user_id = ?", f.user.ID).Count(&apps).Error)
	assert.EqualValues(t, 0, apps)
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	purpose := strings.Repeat("柜", maxPurposeLength)
	app, err := f.svc.Submit(ctx, f.userP, SubmitInput{StoreID: f.store.ID, Purpose: &purpose})
	require.NoError(t, err)
	require.NotNil(t, app.Purpose)
	assert.Equal(t, purpose, *app.Purpose)

	reason := strings.Repeat("拒", maxNoteLength)
	rejected, err := f.svc.Reject(ctx, f.admin, app.ID, reason)
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, reason, *rejected.RejectionReason)

	tooLong := purpose + "柜"
	_, err = f.svc.Submit(ctx, f.userP, SubmitInput{StoreID: f.store.ID, Purpose: &tooLong})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestApproveWithoutAvailableLockerIsExhausted(t *testing.T) {
	f := newWorkflowFixture(t)
	app := f.submit(t)

	_, err := f.svc.Approve(context.Background(), f.admin, app.ID, ApproveInput{})
	requireCode(t, err, pkgerrors.CodeResourceExhausted)

	reloaded, err := f.svc.Get(context.Background(), f.admin, app.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ApplicationStatusPending, reloaded.Status)
}

func TestApproveAssignsFirstLockerInNaturalOrder(t *testing.T) {
	f := newWorkflowFixture(t)
	dbtest.SeedLocker(t, f.conn, f.store.ID, "10")
	second := dbtest.SeedLocker(t, f.conn, f.store.ID, "2")
	app := f.submit(t)

	approved, err := f.svc.Approve(context.Background(), f.admin, app.ID, ApproveInput{})
	require.NoError(t, err)

	assert.Equal(t, enums.ApplicationStatusApproved, approved.Status)
	assert.False(t, approved.IsPending)
	require.NotNil(t, approved.AssignedLockerID)
	assert.Equal(t, second.ID, *approved.AssignedLockerID)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.admin.ID, *approved.ApprovedBy)

	var locker models.Locker
	require.NoError(t, f.conn.First(&locker, "id = ?", second.ID).Error)
	assert.Equal(t, enums.LockerStatusOccupied, locker.Status)
	require.NotNil(t, locker.CurrentUserID)
	assert.Equal(t, f.user.ID, *locker.CurrentUserID)
	assert.EqualValues(t, 1, countRecords(t, f.conn, second.ID, enums.LockerRecordActionAssigned))
}

func TestApproveExplicitLockerChecks(t *testing.T) {
	f := newWorkflowFixture(t)
	other := dbtest.SeedStore(t, f.conn)
	foreign := dbtest.SeedLocker(t, f.conn, other.ID, "1")
	busy := dbtest.SeedLocker(t, f.conn, f.store.ID, "1")
	require.NoError(t, f.conn.Model(&models.Locker{}).Where("id = ?", busy.ID).
		Update("status", enums.LockerStatusMaintenance).Error)
	app := f.submit(t)
	ctx := context.Background()

	missing := uuid.New()
	_, err := f.svc.Approve(ctx, f.admin, app.ID, ApproveInput{LockerID: &missing})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Approve(ctx, f.admin, app.ID, ApproveInput{LockerID: &foreign.ID})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Approve(ctx, f.admin, app.ID, ApproveInput{LockerID: &busy.ID})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestApproveTwiceIsInvalidState(t *testing.T) {
	f := newWorkflowFixture(t)
	dbtest.SeedLocker(t, f.conn, f.store.ID, "1")
	dbtest.SeedLocker(t, f.conn, f.store.ID, "2")
	app := f.submit(t)

	_, err := f.svc.Approve(context.Background(), f.admin, app.ID, ApproveInput{})
	require.NoError(t, err)
	_, err = f.svc.Approve(context.Background(), f.admin, app.ID, ApproveInput{})
	requireCode(t, err, pkgerrors.CodeInvalidState)

	var occupied int64
	require.NoError(t, f.conn.Model(&models.Locker{}).
		Where("current_user_id = ?", f.user.ID).Count(&occupied).Error)
	assert.EqualValues(t, 1, occupied)
}

func TestConcurrentApproveSingleWinner(t *testing.T) {
	f := newWorkflowFixture(t)
	dbtest.SeedLocker(t, f.conn, f.store.ID, "1")
	dbtest.SeedLocker(t, f.conn, f.store.ID, "2")
	app := f.submit(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(context.Background(), f.admin, app.ID, ApproveInput{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		code := pkgerrors.As(err).Code()
		assert.Contains(t, []pkgerrors.Code{pkgerrors.CodeInvalidState, pkgerrors.CodeConflict}, code)
	}
	assert.Equal(t, 1, succeeded)

	var assigned int64
	require.NoError(t, f.conn.Model(&models.LockerRecord{}).
		Where("user_id = ? AND action = ?", f.user.ID, enums.LockerRecordActionAssigned).
		Count(&assigned).Error)
	assert.EqualValues(t, 1, assigned)
}

func TestMarkApprovedIsConditionalOnPending(t *testing.T) {
	f := newWorkflowFixture(t)
	app := f.submit(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()

	ok, err := repo.MarkRejected(ctx, app.ID, nil, "gone", time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.MarkApproved(ctx, app.ID, uuid.New(), f.admin.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok, "stale approve must not overwrite a resolved application")
}

func TestRejectWithReason(t *testing.T) {
	f := newWorkflowFixture(t)
	locker := dbtest.SeedLocker(t, f.conn, f.store.ID, "1")
	app := f.submit(t)

	rejected, err := f.svc.Reject(context.Background(), f.admin, app.ID, "incomplete documents")
	require.NoError(t, err)
	assert.Equal(t, enums.ApplicationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "incomplete documents", *rejected.RejectionReason)
	assert.Nil(t, rejected.AssignedLockerID)

	var reloaded models.Locker
	require.NoError(t, f.conn.First(&reloaded, "id = ?", locker.ID).Error)
	assert.Equal(t, enums.LockerStatusAvailable, reloaded.Status)
	assert.Nil(t, reloaded.CurrentUserID)
	assert.EqualValues(t, 0, countRecords(t, f.conn, locker.ID, enums.LockerRecordActionAssigned))
}

func TestRejectDefaultsReason(t *testing.T) {
	f := newWorkflowFixture(t)
	app := f.submit(t)

	rejected, err := f.svc.Reject(context.Background(), f.admin, app.ID, "  ")
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "Application rejected by administrator", *rejected.RejectionReason)
}

func TestCancelByOwnerOnly(t *testing.T) {
	f := newWorkflowFixture(t)
	app := f.submit(t)
	stranger := dbtest.SeedUser(t, f.conn, &f.store.ID)

	_, err := f.svc.Cancel(context.Background(), policy.User(stranger.ID), app.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	cancelled, err := f.svc.Cancel(context.Background(), f.userP, app.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ApplicationStatusRejected, cancelled.Status)
	assert.Nil(t, cancelled.ApprovedBy)
	require.NotNil(t, cancelled.RejectionReason)
	assert.Equal(t, cancelReason, *cancelled.RejectionReason)

	// a fresh submission is allowed once the previous one is resolved
	f.submit(t)
}

func TestStoreAdminOutsideStoreIsForbidden(t *testing.T) {
	f := newWorkflowFixture(t)
	app := f.submit(t)
	other := dbtest.SeedStore(t, f.conn)
	outsider := dbtest.SeedAdmin(t, f.conn, enums.AdminRoleStoreAdmin, &other.ID)

	_, err := f.svc.Reject(context.Background(), policy.Admin(outsider.ID, outsider.Role, outsider.StoreID), app.ID, "no")
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestAppendNoteAccumulates(t *testing.T) {
	f := newWorkflowFixture(t)
	app := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.AppendNote(ctx, f.admin, app.ID, "called the user")
	require.NoError(t, err)
	updated, err := f.svc.AppendNote(ctx, f.admin, app.ID, "documents received")
	require.NoError(t, err)

	require.NotNil(t, updated.Notes)
	assert.Contains(t, *updated.Notes, "called the user")
	assert.Contains(t, *updated.Notes, "documents received")
}

func TestRoundTripSubmitApproveRelease(t *testing.T) {
	f := newWorkflowFixture(t)
	locker := dbtest.SeedLocker(t, f.conn, f.store.ID, "1")
	app := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.admin, app.ID, ApproveInput{})
	require.NoError(t, err)
	_, err = f.lockers.Release(ctx, f.userP, locker.ID, nil)
	require.NoError(t, err)

	var reloaded models.Locker
	require.NoError(t, f.conn.First(&reloaded, "id = ?", locker.ID).Error)
	assert.Equal(t, enums.LockerStatusAvailable, reloaded.Status)
	assert.Nil(t, reloaded.CurrentUserID)

	var records []models.LockerRecord
	require.NoError(t, f.conn.Where("locker_id = ?", locker.ID).Order("created_at ASC").Find(&records).Error)
	require.Len(t, records, 2)
	actions := []enums.LockerRecordAction{records[0].Action, records[1].Action}
	assert.ElementsMatch(t, []enums.LockerRecordAction{enums.LockerRecordActionAssigned, enums.LockerRecordActionReleased}, actions)
}

func TestListPendingQueueOldestFirst(t *testing.T) {
	f := newWorkflowFixture(t)
	first := f.submit(t)
	other := dbtest.SeedUser(t, f.conn, &f.store.ID)
	require.NoError(t, f.conn.Model(&models.Application{}).Where("id = ?", first.ID).
		Update("created_at", time.Now().UTC().Add(-time.Hour)).Error)
	second, err := f.svc.Submit(context.Background(), policy.User(other.ID), SubmitInput{StoreID: f.store.ID})
	require.NoError(t, err)

	pending := enums.ApplicationStatusPending
	rows, _, err := f.svc.List(context.Background(), f.admin, ListInput{Status: &pending, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)

	mine, _, err := f.svc.List(context.Background(), f.userP, ListInput{Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}

func TestToViewProcessingDays(t *testing.T) {
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	approved := created.Add(36 * time.Hour)
	view := ToView(&models.Application{
		CreatedAt:  created,
		ApprovedAt: &approved,
		Status:     enums.ApplicationStatusApproved,
	}, created.Add(30*24*time.Hour))

	assert.Equal(t, 2, view.ProcessingDays)
	assert.False(t, view.IsPending)

	pending := ToView(&models.Application{CreatedAt: created, Status: enums.ApplicationStatusPending}, created)
	assert.Equal(t, 0, pending.ProcessingDays)
	assert.True(t, pending.IsPending)
}
