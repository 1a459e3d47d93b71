// Package policy holds the single authorization decision every workflow
// mutation consults before touching state.
package policy

import (
	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

// Principal is the authenticated caller supplied by the auth middleware.
type Principal struct {
	ID        uuid.UUID
	Kind      enums.PrincipalKind
	AdminRole enums.AdminRole
	StoreID   *uuid.UUID
}

func User(id uuid.UUID) Principal {
	return Principal{ID: id, Kind: enums.PrincipalKindUser}
}

func Admin(id uuid.UUID, role enums.AdminRole, storeID *uuid.UUID) Principal {
	return Principal{ID: id, Kind: enums.PrincipalKindAdmin, AdminRole: role, StoreID: storeID}
}

func (p Principal) IsUser() bool  { return p.Kind == enums.PrincipalKindUser }
func (p Principal) IsAdmin() bool { return p.Kind == enums.PrincipalKindAdmin }

func (p Principal) IsSuperAdmin() bool {
	return p.IsAdmin() && p.AdminRole == enums.AdminRoleSuperAdmin
}

// Action names an operation guarded by the policy.
type Action string

const (
	ActionSubmitApplication Action = "application.submit"
	ActionCancelApplication Action = "application.cancel"
	ActionViewApplication   Action = "application.view"
	ActionReviewApplication Action = "application.review"
	ActionManageLocker      Action = "locker.manage"
	ActionViewLocker        Action = "locker.view"
	ActionReleaseLocker     Action = "locker.release"
	ActionRecordUsage       Action = "locker.usage"
	ActionViewLedger        Action = "ledger.view"
	ActionCreateStore       Action = "store.create"
	ActionManageStore       Action = "store.manage"
	ActionManageUsers       Action = "user.manage"
	ActionManageAdmins      Action = "admin.manage"
	ActionManageReminders   Action = "reminder.manage"
	ActionViewDashboard     Action = "dashboard.view"
)

// Resource describes what an action touches. StoreID is the owning store;
// OwnerID is the user the resource belongs to (applicant or occupant).
type Resource struct {
	StoreID *uuid.UUID
	OwnerID *uuid.UUID
}

func InStore(storeID uuid.UUID) Resource {
	return Resource{StoreID: &storeID}
}

func OwnedBy(ownerID uuid.UUID, storeID uuid.UUID) Resource {
	return Resource{StoreID: &storeID, OwnerID: &ownerID}
}

// CanPerform decides whether p may run action against res.
func CanPerform(p Principal, action Action, res Resource) bool {
	if p.ID == uuid.Nil || !p.Kind.IsValid() {
		return false
	}

	switch action {
	case ActionSubmitApplication, ActionCancelApplication:
		return p.IsUser() && owns(p, res)
	case ActionViewApplication, ActionViewLedger, ActionReleaseLocker, ActionRecordUsage:
		if p.IsUser() {
			return owns(p, res)
		}
		return adminInScope(p, res)
	case ActionViewLocker:
		if p.IsUser() {
			return true
		}
		return adminInScope(p, res)
	case ActionReviewApplication, ActionManageLocker, ActionManageStore, ActionManageUsers, ActionViewDashboard:
		return adminInScope(p, res)
	case ActionCreateStore, ActionManageAdmins:
		return p.IsSuperAdmin()
	case ActionManageReminders:
		return p.IsAdmin()
	}
	return false
}

// Check is CanPerform returning a FORBIDDEN error on denial.
func Check(p Principal, action Action, res Resource) error {
	if CanPerform(p, action, res) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to "+string(action))
}

// StoreScope resolves the store filter for admin listings. Super admins may
// pass nil to see every store; store admins are pinned to their own store.
func StoreScope(p Principal, requested *uuid.UUID) (*uuid.UUID, error) {
	if !p.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	if p.IsSuperAdmin() {
		return requested, nil
	}
	if p.StoreID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store admin has no store")
	}
	if requested != nil && *requested != *p.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store outside admin scope")
	}
	scoped := *p.StoreID
	return &scoped, nil
}

func owns(p Principal, res Resource) bool {
	return res.OwnerID != nil && *res.OwnerID == p.ID
}

func adminInScope(p Principal, res Resource) bool {
	if !p.IsAdmin() {
		return false
	}
	if p.IsSuperAdmin() {
		return true
	}
	if p.AdminRole != enums.AdminRoleStoreAdmin || p.StoreID == nil || res.StoreID == nil {
		return false
	}
	return *p.StoreID == *res.StoreID
}
