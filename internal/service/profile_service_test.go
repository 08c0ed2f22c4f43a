// internal/service/profile_service_test.go
package service

import (
	"context"
	"testing"

	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_LinkWallet(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewProfileService(db, repository.NewGormProfileRepository())

	userID := seedProfile(t, db, nil)
	wallet := testWallet(t)

	profile, err := svc.LinkWallet(ctx, userID, &model.LinkWalletRequest{WalletAddress: wallet})
	require.NoError(t, err)
	require.NotNil(t, profile.WalletAddress)
	assert.Equal(t, wallet, *profile.WalletAddress)
}

func TestProfileService_LinkWallet_InvalidAddress(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewProfileService(db, repository.NewGormProfileRepository())

	userID := seedProfile(t, db, nil)

	_, err := svc.LinkWallet(ctx, userID, &model.LinkWalletRequest{WalletAddress: "this-is-not-base58-material-of-proper-len!!"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestProfileService_LinkWallet_WalletAlreadyLinked(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewProfileService(db, repository.NewGormProfileRepository())

	wallet := testWallet(t)
	seedProfile(t, db, &wallet)
	otherUser := seedProfile(t, db, nil)

	_, err := svc.LinkWallet(ctx, otherUser, &model.LinkWalletRequest{WalletAddress: wallet})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestProfileService_GetProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := NewProfileService(db, repository.NewGormProfileRepository())

	_, err := svc.GetProfile(ctx, seedProfile(t, db, nil))
	require.NoError(t, err)

	_, err = svc.GetProfile(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
