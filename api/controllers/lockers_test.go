package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/internal/ledger"
	"github.com/lockerhub/lockerhub-backend/internal/lockers"
	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

type stubLockerService struct {
	locker *lockers.LockerDTO
	list   []lockers.LockerDTO
	record *ledger.RecordDTO
	err    error

	calls      []string
	lastID     uuid.UUID
	lastUserID uuid.UUID
	lastCreate lockers.CreateLockerInput
	lastUpdate lockers.UpdateLockerInput
	lastList   lockers.ListInput
	lastNotes  *string
	lastReason string
	lastAction enums.LockerRecordAction
}

func (s *stubLockerService) Create(ctx context.Context, p policy.Principal, input lockers.CreateLockerInput) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "create")
	s.lastCreate = input
	return s.locker, s.err
}

func (s *stubLockerService) Update(ctx context.Context, p policy.Principal, id uuid.UUID, input lockers.UpdateLockerInput) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "update")
	s.lastID = id
	s.lastUpdate = input
	return s.locker, s.err
}

func (s *stubLockerService) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	s.calls = append(s.calls, "delete")
	s.lastID = id
	return s.err
}

func (s *stubLockerService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "get")
	s.lastID = id
	return s.locker, s.err
}

func (s *stubLockerService) List(ctx context.Context, p policy.Principal, input lockers.ListInput) ([]lockers.LockerDTO, error) {
	s.calls = append(s.calls, "list")
	s.lastList = input
	return s.list, s.err
}

func (s *stubLockerService) Mine(ctx context.Context, p policy.Principal) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "mine")
	return s.locker, s.err
}

func (s *stubLockerService) Assign(ctx context.Context, p policy.Principal, id, userID uuid.UUID, notes *string) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "assign")
	s.lastID, s.lastUserID, s.lastNotes = id, userID, notes
	return s.locker, s.err
}

func (s *stubLockerService) Release(ctx context.Context, p policy.Principal, id uuid.UUID, notes *string) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "release")
	s.lastID, s.lastNotes = id, notes
	return s.locker, s.err
}

func (s *stubLockerService) SetMaintenance(ctx context.Context, p policy.Principal, id uuid.UUID, reason string) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "maintenance")
	s.lastID, s.lastReason = id, reason
	return s.locker, s.err
}

func (s *stubLockerService) ReturnToService(ctx context.Context, p policy.Principal, id uuid.UUID) (*lockers.LockerDTO, error) {
	s.calls = append(s.calls, "return")
	s.lastID = id
	return s.locker, s.err
}

func (s *stubLockerService) RecordUsage(ctx context.Context, p policy.Principal, id uuid.UUID, action enums.LockerRecordAction, notes *string) (*ledger.RecordDTO, error) {
	s.calls = append(s.calls, "usage")
	s.lastID, s.lastAction, s.lastNotes = id, action, notes
	return s.record, s.err
}

func TestAdminLockerCreateDefaultsToOwnStore(t *testing.T) {
	storeID := uuid.New()
	svc := &stubLockerService{locker: &lockers.LockerDTO{ID: uuid.New(), StoreID: storeID, Number: "A-01"}}
	req := newRequest(http.MethodPost, "/api/admin/v1/lockers", `{"number":"A-01"}`)
	rec := serve(AdminLockerCreate(svc, nil), asPrincipal(req, storeAdmin(storeID)))

	expectStatus(t, rec, http.StatusCreated)
	if svc.lastCreate.StoreID != storeID || svc.lastCreate.Number != "A-01" {
		t.Fatalf("unexpected create input %+v", svc.lastCreate)
	}
}

func TestAdminLockerCreateSuperAdminNeedsStore(t *testing.T) {
	svc := &stubLockerService{}
	req := newRequest(http.MethodPost, "/api/admin/v1/lockers", `{"number":"A-01"}`)
	rec := serve(AdminLockerCreate(svc, nil), asPrincipal(req, superAdmin()))

	expectStatus(t, rec, http.StatusBadRequest)
	if len(svc.calls) != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestAdminLockerCreateDuplicateNumber(t *testing.T) {
	storeID := uuid.New()
	svc := &stubLockerService{err: pkgerrors.New(pkgerrors.CodeConflict, "locker number already exists in store")}
	req := newRequest(http.MethodPost, "/api/admin/v1/lockers", `{"number":"A-01","store_id":"`+storeID.String()+`"}`)
	rec := serve(AdminLockerCreate(svc, nil), asPrincipal(req, superAdmin()))

	expectStatus(t, rec, http.StatusConflict)
	if svc.lastCreate.StoreID != storeID {
		t.Fatalf("explicit store id ignored")
	}
}

func TestLockerListRequiresValidStatus(t *testing.T) {
	svc := &stubLockerService{}
	req := newRequest(http.MethodGet, "/api/v1/lockers?status=broken", "")
	rec := serve(LockerList(svc, nil), asPrincipal(req, policy.User(uuid.New())))

	expectStatus(t, rec, http.StatusBadRequest)
}

func TestLockerListForwardsFilters(t *testing.T) {
	storeID := uuid.New()
	svc := &stubLockerService{list: []lockers.LockerDTO{{Number: "1"}, {Number: "2"}}}
	req := newRequest(http.MethodGet, "/api/v1/lockers?status=available&store_id="+storeID.String(), "")
	rec := serve(LockerList(svc, nil), asPrincipal(req, policy.User(uuid.New())))

	expectStatus(t, rec, http.StatusOK)
	if svc.lastList.StoreID == nil || *svc.lastList.StoreID != storeID {
		t.Fatalf("store filter missing")
	}
	if svc.lastList.Status == nil || *svc.lastList.Status != enums.LockerStatusAvailable {
		t.Fatalf("status filter missing")
	}
	var items []lockers.LockerDTO
	decodeData(t, rec, &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 lockers, got %d", len(items))
	}
}

func TestLockerMineNotAssigned(t *testing.T) {
	svc := &stubLockerService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no locker assigned")}
	rec := serve(LockerMine(svc, nil), asPrincipal(newRequest(http.MethodGet, "/api/v1/lockers/me", ""), policy.User(uuid.New())))

	expectStatus(t, rec, http.StatusNotFound)
}

func TestLockerReleaseOptionalBody(t *testing.T) {
	id := uuid.New()
	svc := &stubLockerService{locker: &lockers.LockerDTO{ID: id, Status: enums.LockerStatusAvailable}}

	req := withURLParam(newRequest(http.MethodPost, "/", ""), "lockerId", id.String())
	expectStatus(t, serve(LockerRelease(svc, nil), asPrincipal(req, policy.User(uuid.New()))), http.StatusOK)
	if svc.lastNotes != nil {
		t.Fatalf("expected no notes")
	}

	req = withURLParam(newRequest(http.MethodPost, "/", `{"notes":"moving out"}`), "lockerId", id.String())
	expectStatus(t, serve(LockerRelease(svc, nil), asPrincipal(req, policy.User(uuid.New()))), http.StatusOK)
	if svc.lastNotes == nil || *svc.lastNotes != "moving out" {
		t.Fatalf("notes not forwarded")
	}
}

func TestLockerReleaseNotOccupied(t *testing.T) {
	id := uuid.New()
	svc := &stubLockerService{err: pkgerrors.New(pkgerrors.CodeInvalidState, "locker is not occupied")}
	req := withURLParam(newRequest(http.MethodPost, "/", ""), "lockerId", id.String())
	rec := serve(LockerRelease(svc, nil), asPrincipal(req, superAdmin()))

	expectStatus(t, rec, http.StatusConflict)
	if code := errorCode(t, rec); code != string(pkgerrors.CodeInvalidState) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestLockerRecordUsage(t *testing.T) {
	id := uuid.New()
	svc := &stubLockerService{record: &ledger.RecordDTO{ID: uuid.New(), LockerID: id, Action: enums.LockerRecordActionStore}}
	req := withURLParam(newRequest(http.MethodPost, "/", `{"action":"store"}`), "lockerId", id.String())
	rec := serve(LockerRecordUsage(svc, nil), asPrincipal(req, policy.User(uuid.New())))

	expectStatus(t, rec, http.StatusCreated)
	if svc.lastAction != enums.LockerRecordActionStore {
		t.Fatalf("unexpected action %s", svc.lastAction)
	}
}

func TestLockerRecordUsageRejectsLifecycleActions(t *testing.T) {
	for _, action := range []string{"assigned", "released", "dance"} {
		t.Run(action, func(t *testing.T) {
			svc := &stubLockerService{}
			req := withURLParam(newRequest(http.MethodPost, "/", `{"action":"`+action+`"}`), "lockerId", uuid.NewString())
			rec := serve(LockerRecordUsage(svc, nil), asPrincipal(req, policy.User(uuid.New())))
			expectStatus(t, rec, http.StatusBadRequest)
			if len(svc.calls) != 0 {
				t.Fatalf("service should not be called")
			}
		})
	}
}

func TestAdminLockerAssign(t *testing.T) {
	id, userID := uuid.New(), uuid.New()
	svc := &stubLockerService{locker: &lockers.LockerDTO{ID: id, CurrentUserID: &userID, Status: enums.LockerStatusOccupied}}
	req := withURLParam(newRequest(http.MethodPost, "/", `{"user_id":"`+userID.String()+`"}`), "lockerId", id.String())
	rec := serve(AdminLockerAssign(svc, nil), asPrincipal(req, superAdmin()))

	expectStatus(t, rec, http.StatusOK)
	if svc.lastID != id || svc.lastUserID != userID {
		t.Fatalf("unexpected assign args %s %s", svc.lastID, svc.lastUserID)
	}
}

func TestAdminLockerMaintenanceAndReturn(t *testing.T) {
	id := uuid.New()
	svc := &stubLockerService{locker: &lockers.LockerDTO{ID: id}}

	req := withURLParam(newRequest(http.MethodPost, "/", `{"reason":"broken hinge"}`), "lockerId", id.String())
	expectStatus(t, serve(AdminLockerMaintenance(svc, nil), asPrincipal(req, superAdmin())), http.StatusOK)
	if svc.lastReason != "broken hinge" {
		t.Fatalf("unexpected reason %q", svc.lastReason)
	}

	req = withURLParam(newRequest(http.MethodPost, "/", `{}`), "lockerId", id.String())
	expectStatus(t, serve(AdminLockerMaintenance(svc, nil), asPrincipal(req, superAdmin())), http.StatusBadRequest)

	req = withURLParam(newRequest(http.MethodPost, "/", ""), "lockerId", id.String())
	expectStatus(t, serve(AdminLockerReturn(svc, nil), asPrincipal(req, superAdmin())), http.StatusOK)

	if svc.calls[len(svc.calls)-1] != "return" {
		t.Fatalf("unexpected calls %v", svc.calls)
	}
}

func TestAdminLockerUpdateAndDelete(t *testing.T) {
	id := uuid.New()
	svc := &stubLockerService{locker: &lockers.LockerDTO{ID: id, Number: "B-2"}}

	req := withURLParam(newRequest(http.MethodPatch, "/", `{"number":"B-2"}`), "lockerId", id.String())
	expectStatus(t, serve(AdminLockerUpdate(svc, nil), asPrincipal(req, superAdmin())), http.StatusOK)
	if svc.lastUpdate.Number == nil || *svc.lastUpdate.Number != "B-2" || svc.lastUpdate.Notes != nil {
		t.Fatalf("unexpected update %+v", svc.lastUpdate)
	}

	req = withURLParam(newRequest(http.MethodDelete, "/", ""), "lockerId", id.String())
	rec := serve(AdminLockerDelete(svc, nil), asPrincipal(req, superAdmin()))
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body")
	}
}

func TestAdminLockerDeleteWithHistory(t *testing.T) {
	svc := &stubLockerService{err: pkgerrors.New(pkgerrors.CodeConflict, "locker has usage history")}
	req := withURLParam(newRequest(http.MethodDelete, "/", ""), "lockerId", uuid.NewString())
	rec := serve(AdminLockerDelete(svc, nil), asPrincipal(req, superAdmin()))

	expectStatus(t, rec, http.StatusConflict)
}
