package users

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

func TestMeAndScopedGet(t *testing.T) {
	conn, _ := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	ctx := context.Background()

	store := dbtest.SeedStore(t, conn)
	otherStore := dbtest.SeedStore(t, conn)
	user := dbtest.SeedUser(t, conn, &store.ID)
	stranger := dbtest.SeedUser(t, conn, &otherStore.ID)

	me, err := svc.Me(ctx, policy.User(user.ID))
	require.NoError(t, err)
	assert.Equal(t, user.Phone, me.Phone)

	_, err = svc.Get(ctx, policy.User(user.ID), stranger.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	storeAdmin := policy.Admin(uuid.New(), enums.AdminRoleStoreAdmin, &store.ID)
	_, err = svc.Get(ctx, storeAdmin, user.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, storeAdmin, stranger.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Me(ctx, storeAdmin)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestListFiltersAndPages(t *testing.T) {
	conn, _ := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	ctx := context.Background()

	store := dbtest.SeedStore(t, conn)
	for i := 0; i < 3; i++ {
		dbtest.SeedUser(t, conn, &store.ID)
	}
	target := dbtest.SeedUser(t, conn, &store.ID)
	require.NoError(t, conn.Model(target).Update("name", "Zed Findme").Error)
	dbtest.SeedUser(t, conn, nil)

	storeAdmin := policy.Admin(uuid.New(), enums.AdminRoleStoreAdmin, &store.ID)
	page, cursor, err := svc.List(ctx, storeAdmin, ListInput{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page, 3)
	require.NotEmpty(t, cursor)

	rest, next, err := svc.List(ctx, storeAdmin, ListInput{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Empty(t, next)

	found, _, err := svc.List(ctx, storeAdmin, ListInput{Search: "Findme"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, target.ID, found[0].ID)

	all, _, err := svc.List(ctx, policy.Admin(uuid.New(), enums.AdminRoleSuperAdmin, nil), ListInput{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, _, err = svc.List(ctx, storeAdmin, ListInput{Cursor: "%%%"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSetStatus(t *testing.T) {
	conn, _ := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	ctx := context.Background()

	store := dbtest.SeedStore(t, conn)
	user := dbtest.SeedUser(t, conn, &store.ID)
	storeAdmin := policy.Admin(uuid.New(), enums.AdminRoleStoreAdmin, &store.ID)

	dto, err := svc.SetStatus(ctx, storeAdmin, user.ID, enums.UserStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, enums.UserStatusSuspended, dto.Status)

	_, err = svc.SetStatus(ctx, storeAdmin, user.ID, enums.UserStatus("banned"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.SetStatus(ctx, policy.User(user.ID), user.ID, enums.UserStatusActive)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.SetStatus(ctx, storeAdmin, uuid.New(), enums.UserStatusActive)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
