// internal/service/profile_service.go
package service

import (
	"context"
	"errors"

	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	LinkWallet(ctx context.Context, userID uuid.UUID, req *model.LinkWalletRequest) (*model.Profile, error)
}

type profileService struct {
	db          *gorm.DB
	profileRepo repository.ProfileRepository
}

func NewProfileService(db *gorm.DB, profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{db: db, profileRepo: profileRepo}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROFILE_NOT_FOUND", "Profile not found.", "", model.ErrNotFound)
		}
		return nil, err
	}
	return profile, nil
}

// LinkWallet binds a Solana wallet to the profile. A wallet can back only
// one account; the unique index rejects cross-account reuse.
func (s *profileService) LinkWallet(ctx context.Context, userID uuid.UUID, req *model.LinkWalletRequest) (*model.Profile, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := solana.PublicKeyFromBase58(req.WalletAddress); err != nil {
		return nil, model.NewAppError("INVALID_WALLET_ADDRESS", "Wallet address is not a valid public key.", "wallet_address", model.ErrInvalidInput)
	}

	var profile *model.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.profileRepo.UpdateWallet(ctx, tx, userID, req.WalletAddress); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("WALLET_ALREADY_LINKED", "This wallet is already linked to another account.", "wallet_address", model.ErrConflict)
			}
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("PROFILE_NOT_FOUND", "Profile not found.", "", model.ErrNotFound)
			}
			return err
		}

		var err error
		profile, err = s.profileRepo.FindByID(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Wallet linked", "user_id", userID.String(), "wallet_address", req.WalletAddress)
	return profile, nil
}
