package reminders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/db/dbtest"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, _ := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	return svc
}

func TestCreateRequiresAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, policy.User(uuid.New()), CreateInput{Title: "t", Content: "c"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	admin := policy.Admin(uuid.New(), enums.AdminRoleSuperAdmin, nil)
	created, err := svc.Create(ctx, admin, CreateInput{Title: " Hours ", Content: "Open 8 to 22"})
	require.NoError(t, err)
	assert.Equal(t, "Hours", created.Title)
	assert.Equal(t, enums.ReminderTypeGeneral, created.Type)
	assert.True(t, created.IsActive)

	_, err = svc.Create(ctx, admin, CreateInput{Title: "x", Content: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListOrdersUrgentFirstAndHidesInactiveFromUsers(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := policy.Admin(uuid.New(), enums.AdminRoleStoreAdmin, nil)
	inactive := false

	_, err := svc.Create(ctx, admin, CreateInput{Title: "General", Content: "c"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateInput{Title: "Urgent", Content: "c", Type: enums.ReminderTypeUrgent})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateInput{Title: "Hidden", Content: "c", IsActive: &inactive})
	require.NoError(t, err)

	visible, err := svc.List(ctx, policy.User(uuid.New()))
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "Urgent", visible[0].Title)

	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := policy.Admin(uuid.New(), enums.AdminRoleSuperAdmin, nil)

	created, err := svc.Create(ctx, admin, CreateInput{Title: "Old", Content: "c"})
	require.NoError(t, err)

	title := "New"
	off := false
	updated, err := svc.Update(ctx, admin, created.ID, UpdateInput{Title: &title, IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.False(t, updated.IsActive)

	bad := enums.ReminderType("loud")
	_, err = svc.Update(ctx, admin, created.ID, UpdateInput{Type: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.Delete(ctx, admin, created.ID))
	err = svc.Delete(ctx, admin, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Update(ctx, admin, created.ID, UpdateInput{Title: &title})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPostDeduplicatesActiveReminders(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	posted, err := svc.Post(ctx, enums.ReminderTypeUrgent, "Backlog", "3 waiting")
	require.NoError(t, err)
	assert.True(t, posted)

	posted, err = svc.Post(ctx, enums.ReminderTypeUrgent, "Backlog", "4 waiting")
	require.NoError(t, err)
	assert.False(t, posted)

	posted, err = svc.Post(ctx, enums.ReminderTypeGeneral, "Backlog", "4 waiting")
	require.NoError(t, err)
	assert.True(t, posted)
}
