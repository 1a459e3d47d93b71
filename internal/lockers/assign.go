package lockers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lockerhub/lockerhub-backend/internal/ledger"
	"github.com/lockerhub/lockerhub-backend/pkg/db"
	"github.com/lockerhub/lockerhub-backend/pkg/db/models"
	"github.com/lockerhub/lockerhub-backend/pkg/enums"
	pkgerrors "github.com/lockerhub/lockerhub-backend/pkg/errors"
)

const (
	msgLockerNotFound      = "locker not found"
	msgNoAvailableLocker   = "no available locker"
	msgLockerUnavailable   = "locker is no longer available"
	msgUserHasLocker       = "user already has an assigned locker"
	msgLockerWrongStore    = "locker does not belong to the application's store"
	msgUsageOnUnassigned   = "cannot record usage for unassigned locker"
	msgLockerNotOccupied   = "locker is not occupied"
	msgLockerNotInService  = "locker is not in maintenance"
	msgLockerStateChanged  = "locker state changed, reload and retry"
	maintenanceNotesPrefix = "Maintenance: "
)

// Assigner binds a locker to a user and writes the matching ledger entry.
// It only ever runs against a caller-supplied transaction.
type Assigner struct {
	lockers Repository
	ledger  ledger.Repository
}

func NewAssigner(lockers Repository, ledgerRepo ledger.Repository) *Assigner {
	return &Assigner{lockers: lockers, ledger: ledgerRepo}
}

// Pick resolves the locker to assign in storeID: the explicit one when given,
// otherwise the first available by natural number order.
func (a *Assigner) Pick(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, lockerID *uuid.UUID) (*models.Locker, error) {
	repo := a.lockers.WithTx(tx)
	if lockerID == nil {
		locker, err := repo.FirstAvailable(ctx, storeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeResourceExhausted, msgNoAvailableLocker)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select available locker")
		}
		return locker, nil
	}

	locker, err := repo.FindByID(ctx, *lockerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgLockerNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load locker")
	}
	if locker.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgLockerWrongStore)
	}
	if locker.Status != enums.LockerStatusAvailable || locker.CurrentUserID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgLockerUnavailable).
			WithDetails(map[string]any{"locker_id": locker.ID, "status": locker.Status})
	}
	return locker, nil
}

// EnsureNoLocker fails when userID already occupies a locker.
func (a *Assigner) EnsureNoLocker(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	_, err := a.lockers.WithTx(tx).FindByOccupant(ctx, userID)
	switch {
	case err == nil:
		return pkgerrors.New(pkgerrors.CodeConflict, msgUserHasLocker)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check assigned locker")
	}
}

// Assign flips locker available→occupied for userID and appends the
// assigned record. Losing the conditional update surfaces CONFLICT so the
// surrounding transaction rolls back.
func (a *Assigner) Assign(ctx context.Context, tx *gorm.DB, locker *models.Locker, userID uuid.UUID, at time.Time, notes *string) error {
	ok, err := a.lockers.WithTx(tx).Assign(ctx, locker.ID, userID, at)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, msgUserHasLocker)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign locker")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, msgLockerUnavailable).
			WithDetails(map[string]any{"locker_id": locker.ID})
	}

	if err := a.ledger.WithTx(tx).Append(ctx, &models.LockerRecord{
		UserID:   userID,
		LockerID: locker.ID,
		Action:   enums.LockerRecordActionAssigned,
		Notes:    notes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append assigned record")
	}

	locker.Status = enums.LockerStatusOccupied
	locker.CurrentUserID = &userID
	locker.AssignedAt = &at
	return nil
}
