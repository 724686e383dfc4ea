package service

import (
	"context"
	"fmt"

	"creditbot/events"
)

// ApplyBalanceChange applies a credit delta inside the unit of work and queues a
// BalanceChanged event for delivery after commit. This is the single entry point for
// balance movements. Returns false when the user does not exist.
func ApplyBalanceChange(ctx context.Context, uow UnitOfWork, userID int64, delta int64, reason events.BalanceChangeReason) (bool, error) {
	found, err := uow.UserRepository().AddCredits(ctx, userID, delta)
	if err != nil {
		return false, fmt.Errorf("failed to apply %s delta: %w", reason, err)
	}
	if !found {
		return false, nil
	}

	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID: userID,
		Delta:  delta,
		Reason: reason,
	})
	return true, nil
}

// applyReferralBonus pays the referrer without marking them active
func applyReferralBonus(ctx context.Context, uow UnitOfWork, referrerID int64) (bool, error) {
	found, err := uow.UserRepository().AddBonus(ctx, referrerID, ReferralBonus)
	if err != nil {
		return false, fmt.Errorf("failed to apply %s bonus: %w", events.ReasonReferral, err)
	}
	if !found {
		return false, nil
	}

	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID: referrerID,
		Delta:  ReferralBonus,
		Reason: events.ReasonReferral,
	})
	return true, nil
}
