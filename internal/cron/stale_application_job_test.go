package cron

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	"github.com/lockerhub/lockerhub-backend/pkg/logger"
)

func TestStaleApplicationJobPostsUrgentReminder(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	storeA, storeB := uuid.New(), uuid.New()
	lister := &fakeStaleLister{apps: []models.Application{
		{ID: uuid.New(), StoreID: storeA, CreatedAt: now.Add(-96 * time.Hour)},
		{ID: uuid.New(), StoreID: storeA, CreatedAt: now.Add(-80 * time.Hour)},
		{ID: uuid.New(), StoreID: storeB, CreatedAt: now.Add(-75 * time.Hour)},
	}}
	poster := &fakeReminderPoster{}
	job := newStaleApplicationJob(t, lister, poster)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !lister.before.Equal(now.Add(-72 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", lister.before)
	}
	if poster.calls != 1 || poster.kind != enums.ReminderTypeUrgent {
		t.Fatalf("expected one urgent reminder, got %d %s", poster.calls, poster.kind)
	}
	if !strings.Contains(poster.content, "3 application(s) across 2 store(s)") {
		t.Fatalf("unexpected content %q", poster.content)
	}
	if !strings.Contains(poster.content, "3 days") {
		t.Fatalf("expected wait in days, got %q", poster.content)
	}
}

func TestStaleApplicationJobNoopWhenNothingStale(t *testing.T) {
	poster := &fakeReminderPoster{}
	job := newStaleApplicationJob(t, &fakeStaleLister{}, poster)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if poster.calls != 0 {
		t.Fatalf("expected no reminder, got %d", poster.calls)
	}
}

func newStaleApplicationJob(t *testing.T, lister *fakeStaleLister, poster *fakeReminderPoster) *staleApplicationJob {
	t.Helper()
	jobIface, err := NewStaleApplicationJob(StaleApplicationJobParams{
		Logger:       logger.Nop(),
		Applications: lister,
		Reminders:    poster,
	})
	if err != nil {
		t.Fatalf("NewStaleApplicationJob: %v", err)
	}
	return jobIface.(*staleApplicationJob)
}

type fakeStaleLister struct {
	apps   []models.Application
	before time.Time
}

func (f *fakeStaleLister) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Application, error) {
	f.before = createdBefore
	return f.apps, nil
}

type fakeReminderPoster struct {
	calls   int
	kind    enums.ReminderType
	content string
}

func (f *fakeReminderPoster) Post(ctx context.Context, kind enums.ReminderType, title, content string) (bool, error) {
	f.calls++
	f.kind = kind
	f.content = content
	return true, nil
}
