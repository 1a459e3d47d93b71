package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/lockerhub/lockerhub-backend/pkg/enums"
)

// UsageStats is the derived view over a slice of the ledger.
type UsageStats struct {
	Total           int64                              `json:"total"`
	ByAction        map[enums.LockerRecordAction]int64 `json:"by_action"`
	UniqueLockers   int                                `json:"unique_lockers"`
	UniqueUsers     int                                `json:"unique_users"`
	ActiveDays      int                                `json:"active_days"`
	FirstActivityAt *time.Time                         `json:"first_activity_at,omitempty"`
	LastActivityAt  *time.Time                         `json:"last_activity_at,omitempty"`
}

// summarize folds ledger rows ordered by created_at ascending. Active days
// are counted on UTC calendar dates.
func summarize(rows []statsRow) UsageStats {
	stats := UsageStats{ByAction: map[enums.LockerRecordAction]int64{
		enums.LockerRecordActionAssigned: 0,
		enums.LockerRecordActionStore:    0,
		enums.LockerRecordActionRetrieve: 0,
		enums.LockerRecordActionReleased: 0,
	}}
	if len(rows) == 0 {
		return stats
	}

	lockers := map[uuid.UUID]struct{}{}
	users := map[uuid.UUID]struct{}{}
	days := map[string]struct{}{}
	for _, row := range rows {
		stats.Total++
		stats.ByAction[row.Action]++
		lockers[row.LockerID] = struct{}{}
		users[row.UserID] = struct{}{}
		days[row.CreatedAt.UTC().Format(time.DateOnly)] = struct{}{}
	}

	first := rows[0].CreatedAt.UTC()
	last := rows[len(rows)-1].CreatedAt.UTC()
	stats.FirstActivityAt = &first
	stats.LastActivityAt = &last
	stats.UniqueLockers = len(lockers)
	stats.UniqueUsers = len(users)
	stats.ActiveDays = len(days)
	return stats
}
