package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/internal/ledger"
	"github.com/lockerhub/lockerhub-backend/internal/policy"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

type stubLedgerService struct {
	records []ledger.RecordDTO
	next    string
	stats   *ledger.UsageStats
	export  *ledger.Export
	err     error

	lastList   ledger.ListInput
	lastExport ledger.ExportInput
	lastStats  uuid.UUID
	statsKind  string
}

func (s *stubLedgerService) List(ctx context.Context, p policy.Principal, input ledger.ListInput) ([]ledger.RecordDTO, string, error) {
	s.lastList = input
	return s.records, s.next, s.err
}

func (s *stubLedgerService) UserStats(ctx context.Context, p policy.Principal, userID uuid.UUID) (*ledger.UsageStats, error) {
	s.lastStats, s.statsKind = userID, "user"
	return s.stats, s.err
}

func (s *stubLedgerService) LockerStats(ctx context.Context, p policy.Principal, lockerID uuid.UUID) (*ledger.UsageStats, error) {
	s.lastStats, s.statsKind = lockerID, "locker"
	return s.stats, s.err
}

func (s *stubLedgerService) Export(ctx context.Context, p policy.Principal, input ledger.ExportInput) (*ledger.Export, error) {
	s.lastExport = input
	return s.export, s.err
}

func TestRecordListParsesFilters(t *testing.T) {
	lockerID := uuid.New()
	svc := &stubLedgerService{records: []ledger.RecordDTO{{ID: uuid.New()}}, next: "c2"}
	target := "/api/admin/v1/records?locker_id=" + lockerID.String() + "&action=retrieve&from=2026-06-01&to=2026-06-15T10:00:00Z&limit=50"
	rec := serve(RecordList(svc, nil), asPrincipal(newRequest(http.MethodGet, target, ""), superAdmin()))

	expectStatus(t, rec, http.StatusOK)
	in := svc.lastList
	if in.LockerID == nil || *in.LockerID != lockerID {
		t.Fatalf("locker filter missing")
	}
	if in.Action == nil || *in.Action != enums.LockerRecordActionRetrieve {
		t.Fatalf("action filter missing")
	}
	if in.From == nil || !in.From.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v", in.From)
	}
	if in.To == nil || !in.To.Equal(time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected to %v", in.To)
	}
	if in.Limit != 50 {
		t.Fatalf("unexpected limit %d", in.Limit)
	}
}

func TestRecordListBadDate(t *testing.T) {
	svc := &stubLedgerService{}
	rec := serve(RecordList(svc, nil), asPrincipal(newRequest(http.MethodGet, "/api/v1/records?from=yesterday", ""), policy.User(uuid.New())))
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRecordListForbiddenForOtherUser(t *testing.T) {
	svc := &stubLedgerService{err: pkgerrors.New(pkgerrors.CodeForbidden, "records belong to another user")}
	target := "/api/v1/records?user_id=" + uuid.NewString()
	rec := serve(RecordList(svc, nil), asPrincipal(newRequest(http.MethodGet, target, ""), policy.User(uuid.New())))
	expectStatus(t, rec, http.StatusForbidden)
}

func TestMyStatsUsesCaller(t *testing.T) {
	user := policy.User(uuid.New())
	svc := &stubLedgerService{stats: &ledger.UsageStats{Total: 3, ActiveDays: 2}}
	rec := serve(MyStats(svc, nil), asPrincipal(newRequest(http.MethodGet, "/api/v1/stats", ""), user))

	expectStatus(t, rec, http.StatusOK)
	if svc.lastStats != user.ID || svc.statsKind != "user" {
		t.Fatalf("stats requested for %s (%s)", svc.lastStats, svc.statsKind)
	}
	var stats ledger.UsageStats
	decodeData(t, rec, &stats)
	if stats.Total != 3 || stats.ActiveDays != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestAdminLockerStats(t *testing.T) {
	lockerID := uuid.New()
	svc := &stubLedgerService{stats: &ledger.UsageStats{UniqueUsers: 4}}
	req := withURLParam(newRequest(http.MethodGet, "/", ""), "lockerId", lockerID.String())
	rec := serve(AdminLockerStats(svc, nil), asPrincipal(req, superAdmin()))

	expectStatus(t, rec, http.StatusOK)
	if svc.lastStats != lockerID || svc.statsKind != "locker" {
		t.Fatalf("unexpected stats target")
	}
}

func TestAdminRecordExportAttachment(t *testing.T) {
	storeID := uuid.New()
	svc := &stubLedgerService{export: &ledger.Export{
		Filename:    "records_store_20260615.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        []byte("PK\x03\x04"),
		Rows:        1,
	}}
	target := "/api/admin/v1/records/export?store_id=" + storeID.String() + "&from=2026-06-01&to=2026-06-15"
	rec := serve(AdminRecordExport(svc, nil), asPrincipal(newRequest(http.MethodGet, target, ""), storeAdmin(storeID)))

	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="records_store_20260615.xlsx"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != svc.export.ContentType {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "PK\x03\x04" {
		t.Fatalf("unexpected body")
	}
	if svc.lastExport.StoreID == nil || *svc.lastExport.StoreID != storeID || svc.lastExport.From == nil || svc.lastExport.To == nil {
		t.Fatalf("unexpected export input %+v", svc.lastExport)
	}
}

func TestAdminRecordExportTooLarge(t *testing.T) {
	svc := &stubLedgerService{err: pkgerrors.New(pkgerrors.CodeValidation, "export exceeds row limit")}
	rec := serve(AdminRecordExport(svc, nil), asPrincipal(newRequest(http.MethodGet, "/api/admin/v1/records/export", ""), superAdmin()))
	expectStatus(t, rec, http.StatusBadRequest)
}
