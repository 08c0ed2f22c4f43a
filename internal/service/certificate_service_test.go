// internal/service/certificate_service_test.go
package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"superteam_academy/internal/ledger"
	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockLedgerClient is a testify mock for the ledger.Client interface.
type mockLedgerClient struct {
	mock.Mock
}

func (m *mockLedgerClient) RentExemptMinimum(ctx context.Context, dataSize uint64) (uint64, error) {
	args := m.Called(ctx, dataSize)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockLedgerClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *mockLedgerClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *mockLedgerClient) ConfirmTransaction(ctx context.Context, signature solana.Signature) error {
	args := m.Called(ctx, signature)
	return args.Error(0)
}

func newCertificateService(db *gorm.DB, ledgerClient ledger.Client) CertificateService {
	issuer, err := solana.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return NewCertificateService(
		db,
		repository.NewGormCourseRepository(),
		repository.NewGormEnrollmentRepository(),
		repository.NewGormCertificateRepository(),
		repository.NewGormProfileRepository(),
		ledgerClient,
		&LogMailer{},
		issuer,
		"devnet",
	)
}

func testWallet(t *testing.T) string {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey().String()
}

func completeEnrollment(t *testing.T, db *gorm.DB, enrollment *model.Enrollment) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Model(&model.Enrollment{}).
		Where("enrollment_id = ?", enrollment.EnrollmentID).
		Updates(map[string]interface{}{"progress_percentage": 100, "completed_at": &now}).Error)
}

func expectBuildCalls(client *mockLedgerClient) {
	client.On("RentExemptMinimum", mock.Anything, ledger.MintAccountSize).Return(uint64(1461600), nil)
	client.On("RentExemptMinimum", mock.Anything, ledger.TokenAccountSize).Return(uint64(2039280), nil)
	client.On("LatestBlockhash", mock.Anything).Return(solana.Hash{1, 2, 3}, nil)
}

func TestCertificateService_Prepare(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	wallet := testWallet(t)
	userID := seedProfile(t, db, &wallet)
	course, _ := seedCourse(t, db, 1)
	enrollment := seedEnrollment(t, db, userID, course.CourseID)
	completeEnrollment(t, db, enrollment)

	expectBuildCalls(client)

	resp, err := svc.Prepare(ctx, userID, &model.PrepareCertificateRequest{CourseRef: course.Slug})
	require.NoError(t, err)
	assert.False(t, resp.AlreadyIssued)
	assert.NotEmpty(t, resp.MintAddress)

	// The serialized transaction must be valid base64.
	raw, err := base64.StdEncoding.DecodeString(resp.SerializedTransaction)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	// Preparing persists nothing.
	var count int64
	require.NoError(t, db.Model(&model.Certificate{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	client.AssertExpectations(t)
}

func TestCertificateService_Prepare_CourseNotCompleted(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	wallet := testWallet(t)
	userID := seedProfile(t, db, &wallet)
	course, _ := seedCourse(t, db, 2)
	seedEnrollment(t, db, userID, course.CourseID)

	_, err := svc.Prepare(ctx, userID, &model.PrepareCertificateRequest{CourseRef: course.Slug})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPrecondition)

	// The error names the lessons still outstanding.
	assert.Contains(t, err.Error(), "lesson-0")
	assert.Contains(t, err.Error(), "lesson-1")

	client.AssertNotCalled(t, "LatestBlockhash", mock.Anything)
}

func TestCertificateService_Prepare_WalletNotLinked(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	userID := seedProfile(t, db, nil)
	course, _ := seedCourse(t, db, 1)
	enrollment := seedEnrollment(t, db, userID, course.CourseID)
	completeEnrollment(t, db, enrollment)

	_, err := svc.Prepare(ctx, userID, &model.PrepareCertificateRequest{CourseRef: course.Slug})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPrecondition)
}

func TestCertificateService_Prepare_AlreadyIssued(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	wallet := testWallet(t)
	userID := seedProfile(t, db, &wallet)
	course, _ := seedCourse(t, db, 1)
	enrollment := seedEnrollment(t, db, userID, course.CourseID)
	completeEnrollment(t, db, enrollment)

	existing := model.Certificate{
		CertificateID: uuid.New(),
		UserID:        userID,
		CourseID:      course.CourseID,
		WalletAddress: wallet,
		MintAddress:   testWallet(t),
		Signature:     "sig",
		Network:       "devnet",
		IssuedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&existing).Error)

	resp, err := svc.Prepare(ctx, userID, &model.PrepareCertificateRequest{CourseRef: course.Slug})
	require.NoError(t, err)
	assert.True(t, resp.AlreadyIssued)
	require.NotNil(t, resp.Certificate)
	assert.Equal(t, existing.MintAddress, resp.Certificate.MintAddress)
	assert.Empty(t, resp.SerializedTransaction)

	// No ledger traffic for an already-issued certificate.
	client.AssertNotCalled(t, "LatestBlockhash", mock.Anything)
}

func TestCertificateService_Confirm(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	wallet := testWallet(t)
	userID := seedProfile(t, db, &wallet)
	course, _ := seedCourse(t, db, 1)
	enrollment := seedEnrollment(t, db, userID, course.CourseID)
	completeEnrollment(t, db, enrollment)

	mintAddress := testWallet(t)
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	sig, err := key.Sign([]byte("certificate"))
	require.NoError(t, err)

	client.On("ConfirmTransaction", mock.Anything, sig).Return(nil).Once()

	certificate, err := svc.Confirm(ctx, userID, &model.ConfirmCertificateRequest{
		CourseRef:   course.Slug,
		MintAddress: mintAddress,
		Signature:   sig.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, mintAddress, certificate.MintAddress)
	assert.Equal(t, wallet, certificate.WalletAddress)
	assert.Equal(t, "devnet", certificate.Network)

	var count int64
	require.NoError(t, db.Model(&model.Certificate{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A second confirm short-circuits on the stored row.
	again, err := svc.Confirm(ctx, userID, &model.ConfirmCertificateRequest{
		CourseRef:   course.Slug,
		MintAddress: mintAddress,
		Signature:   sig.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, certificate.MintAddress, again.MintAddress)

	client.AssertExpectations(t)
}

func TestCertificateService_Confirm_RejectedLeavesNoState(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	wallet := testWallet(t)
	userID := seedProfile(t, db, &wallet)
	course, _ := seedCourse(t, db, 1)
	enrollment := seedEnrollment(t, db, userID, course.CourseID)
	completeEnrollment(t, db, enrollment)

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	sig, err := key.Sign([]byte("rejected"))
	require.NoError(t, err)

	client.On("ConfirmTransaction", mock.Anything, sig).Return(assert.AnError).Once()

	_, err = svc.Confirm(ctx, userID, &model.ConfirmCertificateRequest{
		CourseRef:   course.Slug,
		MintAddress: testWallet(t),
		Signature:   sig.String(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrLedgerRejected)

	var count int64
	require.NoError(t, db.Model(&model.Certificate{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCertificateService_Issue_Custodial(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	wallet := testWallet(t)
	userID := seedProfile(t, db, &wallet)
	course, _ := seedCourse(t, db, 1)
	enrollment := seedEnrollment(t, db, userID, course.CourseID)
	completeEnrollment(t, db, enrollment)

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	sig, err := key.Sign([]byte("custodial"))
	require.NoError(t, err)

	expectBuildCalls(client)
	client.On("SendTransaction", mock.Anything, mock.AnythingOfType("*solana.Transaction")).Return(sig, nil).Once()
	client.On("ConfirmTransaction", mock.Anything, sig).Return(nil).Once()

	certificate, err := svc.Issue(ctx, userID, &model.IssueCertificateRequest{CourseRef: course.Slug})
	require.NoError(t, err)
	assert.Equal(t, wallet, certificate.WalletAddress)
	assert.Equal(t, sig.String(), certificate.Signature)
	assert.NotEmpty(t, certificate.MintAddress)

	var count int64
	require.NoError(t, db.Model(&model.Certificate{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	client.AssertExpectations(t)
}

func TestCertificateService_List(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := new(mockLedgerClient)
	svc := newCertificateService(db, client)

	wallet := testWallet(t)
	userID := seedProfile(t, db, &wallet)
	course, _ := seedCourse(t, db, 1)

	certificates, err := svc.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, certificates)

	row := model.Certificate{
		CertificateID: uuid.New(),
		UserID:        userID,
		CourseID:      course.CourseID,
		WalletAddress: wallet,
		MintAddress:   testWallet(t),
		Signature:     "sig",
		Network:       "devnet",
		IssuedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&row).Error)

	certificates, err = svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, certificates, 1)
	assert.Equal(t, course.Title, certificates[0].CourseTitle)
}
