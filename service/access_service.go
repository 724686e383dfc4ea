package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"creditbot/models"
)

type accessService struct {
	uowFactory   UnitOfWorkFactory
	ownerID      int64
	staticAdmins map[int64]struct{}
	timeout      time.Duration
}

// NewAccessService creates a new access service. The owner and static admins come from
// configuration and always outrank the admins table.
func NewAccessService(uowFactory UnitOfWorkFactory, ownerID int64, staticAdmins []int64, timeout time.Duration) AccessService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	admins := make(map[int64]struct{}, len(staticAdmins))
	for _, id := range staticAdmins {
		admins[id] = struct{}{}
	}
	return &accessService{
		uowFactory:   uowFactory,
		ownerID:      ownerID,
		staticAdmins: admins,
		timeout:      timeout,
	}
}

func (s *accessService) IsOwner(userID int64) bool {
	return s.ownerID != 0 && userID == s.ownerID
}

func (s *accessService) isStatic(userID int64) bool {
	_, ok := s.staticAdmins[userID]
	return ok
}

func (s *accessService) Level(ctx context.Context, userID int64) models.AdminLevel {
	if s.IsOwner(userID) {
		return models.AdminLevelOwner
	}
	if s.isStatic(userID) {
		return models.AdminLevelAdmin
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to resolve admin level")
		return models.AdminLevelNone
	}
	defer uow.Rollback()

	admin, err := uow.AdminRepository().Get(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to resolve admin level")
		return models.AdminLevelNone
	}
	if admin == nil {
		return models.AdminLevelNone
	}
	return admin.Level
}

func (s *accessService) SyncStaticAdmins(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	synced := 0
	for id := range s.staticAdmins {
		if s.IsOwner(id) {
			continue
		}
		if err := uow.AdminRepository().Upsert(ctx, &models.Admin{UserID: id, Level: models.AdminLevelAdmin}); err != nil {
			return err
		}
		synced++
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("count", synced).Info("Synced static admins")
	return nil
}

func (s *accessService) AddAdmin(ctx context.Context, userID, addedBy int64) (bool, string) {
	if s.IsOwner(userID) {
		return false, "That user is the owner"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin transaction")
		return false, msgStoreFailure
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.UserRepository().EnsureExists(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to add admin")
		return false, msgStoreFailure
	}

	created, err := uow.AdminRepository().Create(ctx, &models.Admin{
		UserID:  userID,
		Level:   models.AdminLevelAdmin,
		AddedBy: &addedBy,
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to add admin")
		return false, msgStoreFailure
	}
	if !created {
		return false, "User is already an admin"
	}

	if err := uow.Commit(); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to add admin")
		return false, msgStoreFailure
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"added_by": addedBy,
	}).Info("Admin added")
	return true, "Admin added successfully"
}

func (s *accessService) RemoveAdmin(ctx context.Context, userID int64) (bool, string) {
	if s.IsOwner(userID) {
		return false, "The owner cannot be removed"
	}
	if s.isStatic(userID) {
		return false, "Configured admins must be removed from ADMIN_IDS"
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to begin transaction")
		return false, msgStoreFailure
	}
	defer uow.Rollback() // No-op if already committed

	removed, err := uow.AdminRepository().Delete(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to remove admin")
		return false, msgStoreFailure
	}
	if !removed {
		return false, "User is not an admin"
	}

	if err := uow.Commit(); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Failed to remove admin")
		return false, msgStoreFailure
	}

	log.WithField("user_id", userID).Info("Admin removed")
	return true, "Admin removed successfully"
}

func (s *accessService) ListAdmins(ctx context.Context) []*models.Admin {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).Error("Failed to list admins")
		return nil
	}
	defer uow.Rollback()

	admins, err := uow.AdminRepository().List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list admins")
		return nil
	}
	return admins
}
