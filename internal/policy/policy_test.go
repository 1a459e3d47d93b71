package policy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

func TestCanPerformUserOwnership(t *testing.T) {
	userID := uuid.New()
	storeID := uuid.New()
	user := User(userID)

	if !CanPerform(user, ActionSubmitApplication, OwnedBy(userID, storeID)) {
		t.Fatal("user should submit own application")
	}
	if CanPerform(user, ActionCancelApplication, OwnedBy(uuid.New(), storeID)) {
		t.Fatal("user must not cancel someone else's application")
	}
	if CanPerform(user, ActionReviewApplication, InStore(storeID)) {
		t.Fatal("user must not review applications")
	}
	if !CanPerform(user, ActionRecordUsage, OwnedBy(userID, storeID)) {
		t.Fatal("occupant should record usage")
	}
}

func TestCanPerformStoreAdminScope(t *testing.T) {
	storeID := uuid.New()
	admin := Admin(uuid.New(), enums.AdminRoleStoreAdmin, &storeID)

	if !CanPerform(admin, ActionReviewApplication, InStore(storeID)) {
		t.Fatal("store admin should review own store")
	}
	if CanPerform(admin, ActionReviewApplication, InStore(uuid.New())) {
		t.Fatal("store admin must not review other stores")
	}
	if CanPerform(admin, ActionManageLocker, Resource{}) {
		t.Fatal("store admin must not act without a store on the resource")
	}
	if CanPerform(admin, ActionManageAdmins, Resource{}) {
		t.Fatal("store admin must not manage admins")
	}
	if CanPerform(admin, ActionSubmitApplication, OwnedBy(admin.ID, storeID)) {
		t.Fatal("admins do not submit applications")
	}
}

func TestCanPerformSuperAdmin(t *testing.T) {
	super := Admin(uuid.New(), enums.AdminRoleSuperAdmin, nil)
	for _, action := range []Action{
		ActionReviewApplication,
		ActionManageLocker,
		ActionCreateStore,
		ActionManageAdmins,
		ActionManageReminders,
		ActionViewDashboard,
	} {
		if !CanPerform(super, action, InStore(uuid.New())) {
			t.Fatalf("super admin denied %s", action)
		}
	}
}

func TestCanPerformRejectsAnonymous(t *testing.T) {
	if CanPerform(Principal{}, ActionViewLocker, Resource{}) {
		t.Fatal("zero principal must be denied")
	}
}

func TestCheckReturnsForbidden(t *testing.T) {
	err := Check(User(uuid.New()), ActionManageAdmins, Resource{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestStoreScope(t *testing.T) {
	storeID := uuid.New()
	other := uuid.New()

	scoped, err := StoreScope(Admin(uuid.New(), enums.AdminRoleStoreAdmin, &storeID), nil)
	if err != nil || scoped == nil || *scoped != storeID {
		t.Fatalf("expected store admin pinned to own store, got %v %v", scoped, err)
	}
	if _, err := StoreScope(Admin(uuid.New(), enums.AdminRoleStoreAdmin, &storeID), &other); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign store, got %v", err)
	}

	scoped, err = StoreScope(Admin(uuid.New(), enums.AdminRoleSuperAdmin, nil), nil)
	if err != nil || scoped != nil {
		t.Fatalf("super admin without filter should see all stores, got %v %v", scoped, err)
	}
	if _, err := StoreScope(User(uuid.New()), nil); err == nil {
		t.Fatal("users have no admin scope")
	}
}
