// internal/service/certificate_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"superteam_academy/internal/ledger"
	"superteam_academy/internal/middleware"
	"superteam_academy/internal/model"
	"superteam_academy/internal/repository"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateService interface {
	// Prepare builds a partially-signed mint transaction with the learner
	// as fee payer. Nothing is persisted until Confirm.
	Prepare(ctx context.Context, userID uuid.UUID, req *model.PrepareCertificateRequest) (*model.PrepareCertificateResponse, error)
	// Confirm verifies a learner-submitted transaction on chain and
	// records the certificate exactly once.
	Confirm(ctx context.Context, userID uuid.UUID, req *model.ConfirmCertificateRequest) (*model.CertificateResponse, error)
	// Issue is the custodial path: the issuer pays fees, signs, submits
	// and confirms in one call.
	Issue(ctx context.Context, userID uuid.UUID, req *model.IssueCertificateRequest) (*model.CertificateResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]*model.CertificateResponse, error)
}

type certificateService struct {
	db              *gorm.DB
	courseRepo      repository.CourseRepository
	enrollmentRepo  repository.EnrollmentRepository
	certificateRepo repository.CertificateRepository
	profileRepo     repository.ProfileRepository
	ledger          ledger.Client
	mailer          Mailer
	issuerKey       solana.PrivateKey
	network         string
}

func NewCertificateService(
	db *gorm.DB,
	courseRepo repository.CourseRepository,
	enrollmentRepo repository.EnrollmentRepository,
	certificateRepo repository.CertificateRepository,
	profileRepo repository.ProfileRepository,
	ledgerClient ledger.Client,
	mailer Mailer,
	issuerKey solana.PrivateKey,
	network string,
) CertificateService {
	return &certificateService{
		db:              db,
		courseRepo:      courseRepo,
		enrollmentRepo:  enrollmentRepo,
		certificateRepo: certificateRepo,
		profileRepo:     profileRepo,
		ledger:          ledgerClient,
		mailer:          mailer,
		issuerKey:       issuerKey,
		network:         network,
	}
}

// checkEligibility resolves the course and verifies the user has finished
// it. Returns the course for downstream use.
func (s *certificateService) checkEligibility(ctx context.Context, userID uuid.UUID, courseRef string) (*model.Course, error) {
	course, err := s.courseRepo.FindCourseByRef(ctx, s.db, courseRef)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("COURSE_NOT_FOUND", "Course not found.", "course_ref", model.ErrNotFound)
		}
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.FindByUserAndCourse(ctx, s.db, userID, course.CourseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_ENROLLED", "You are not enrolled in this course.", "course_ref", model.ErrPrecondition)
		}
		return nil, err
	}
	if enrollment.ProgressPercentage < 100 {
		message := "Course must be fully completed before a certificate can be issued."
		if missing, merr := s.missingLessonSlugs(ctx, enrollment); merr == nil && len(missing) > 0 {
			message = fmt.Sprintf("%s Remaining lessons: %s.", message, strings.Join(missing, ", "))
		}
		return nil, model.NewAppError("COURSE_NOT_COMPLETED", message, "course_ref", model.ErrPrecondition)
	}

	return course, nil
}

// missingLessonSlugs names the lessons still standing between the user and
// the certificate, judged against the same universe progress uses.
func (s *certificateService) missingLessonSlugs(ctx context.Context, enrollment *model.Enrollment) ([]string, error) {
	lessons, err := s.courseRepo.ListLessons(ctx, s.db, enrollment.CourseID, true)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		lessons, err = s.courseRepo.ListLessons(ctx, s.db, enrollment.CourseID, false)
		if err != nil {
			return nil, err
		}
	}

	completions, err := s.enrollmentRepo.ListCompletionsByEnrollment(ctx, s.db, enrollment.EnrollmentID)
	if err != nil {
		return nil, err
	}
	completed := model.NewCompletionSet()
	for _, c := range completions {
		ref := model.LessonRef{ID: c.LessonID}
		if c.Lesson != nil {
			ref = c.Lesson.Ref()
		}
		completed.Add(ref)
	}

	var missing []string
	for _, lesson := range lessons {
		if !completed.Contains(lesson.Ref()) {
			missing = append(missing, lesson.Slug)
		}
	}
	return missing, nil
}

// resolveWallet picks the recipient wallet: an explicit request value wins,
// otherwise the profile-linked wallet.
func (s *certificateService) resolveWallet(ctx context.Context, userID uuid.UUID, requested string) (solana.PublicKey, error) {
	address := requested
	if address == "" {
		profile, err := s.profileRepo.FindByID(ctx, s.db, userID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return solana.PublicKey{}, model.NewAppError("WALLET_NOT_LINKED", "No wallet address is linked to this account.", "wallet_address", model.ErrPrecondition)
			}
			return solana.PublicKey{}, err
		}
		if profile.WalletAddress == nil || *profile.WalletAddress == "" {
			return solana.PublicKey{}, model.NewAppError("WALLET_NOT_LINKED", "No wallet address is linked to this account.", "wallet_address", model.ErrPrecondition)
		}
		address = *profile.WalletAddress
	}

	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, model.NewAppError("INVALID_WALLET_ADDRESS", "Wallet address is not a valid public key.", "wallet_address", model.ErrInvalidInput)
	}
	return pubkey, nil
}

func (s *certificateService) Prepare(ctx context.Context, userID uuid.UUID, req *model.PrepareCertificateRequest) (*model.PrepareCertificateResponse, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.checkEligibility(ctx, userID, req.CourseRef)
	if err != nil {
		return nil, err
	}

	if existing, err := s.certificateRepo.FindByUserAndCourse(ctx, s.db, userID, course.CourseID); err == nil {
		return &model.PrepareCertificateResponse{
			AlreadyIssued: true,
			Certificate:   existing.ToResponse(),
		}, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	wallet, err := s.resolveWallet(ctx, userID, req.WalletAddress)
	if err != nil {
		return nil, err
	}

	mintTx, err := ledger.BuildMintTransaction(ctx, s.ledger, ledger.MintParams{
		Issuer:    s.issuerKey,
		FeePayer:  wallet,
		Recipient: wallet,
	})
	if err != nil {
		logger.Error("Failed to build mint transaction", "error", err, "user_id", userID.String())
		return nil, model.NewAppError("LEDGER_UNAVAILABLE", "Could not prepare the mint transaction.", "", model.ErrExternalService)
	}

	logger.Info("Certificate mint prepared",
		"user_id", userID.String(),
		"course_id", course.CourseID.String(),
		"mint_address", mintTx.MintAddress.String(),
	)

	return &model.PrepareCertificateResponse{
		AlreadyIssued:         false,
		SerializedTransaction: mintTx.Base64,
		MintAddress:           mintTx.MintAddress.String(),
	}, nil
}

func (s *certificateService) Confirm(ctx context.Context, userID uuid.UUID, req *model.ConfirmCertificateRequest) (*model.CertificateResponse, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.checkEligibility(ctx, userID, req.CourseRef)
	if err != nil {
		return nil, err
	}

	if existing, err := s.certificateRepo.FindByUserAndCourse(ctx, s.db, userID, course.CourseID); err == nil {
		return existing.ToResponse(), nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	wallet, err := s.resolveWallet(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	if _, err := solana.PublicKeyFromBase58(req.MintAddress); err != nil {
		return nil, model.NewAppError("INVALID_MINT_ADDRESS", "Mint address is not a valid public key.", "mint_address", model.ErrInvalidInput)
	}
	signature, err := solana.SignatureFromBase58(req.Signature)
	if err != nil {
		return nil, model.NewAppError("INVALID_SIGNATURE", "Transaction signature is malformed.", "signature", model.ErrInvalidInput)
	}

	// The certificate row is written only after the chain accepts the
	// transaction. A rejected transaction leaves no state behind.
	if err := s.ledger.ConfirmTransaction(ctx, signature); err != nil {
		logger.Warn("Mint transaction not confirmed", "error", err, "signature", req.Signature)
		return nil, model.NewAppError("MINT_NOT_CONFIRMED", "The mint transaction was not confirmed on chain.", "signature", model.ErrLedgerRejected)
	}

	return s.persistCertificate(ctx, userID, course, wallet.String(), req.MintAddress, req.Signature)
}

func (s *certificateService) Issue(ctx context.Context, userID uuid.UUID, req *model.IssueCertificateRequest) (*model.CertificateResponse, error) {
	logger := middleware.GetLogger(ctx)

	course, err := s.checkEligibility(ctx, userID, req.CourseRef)
	if err != nil {
		return nil, err
	}

	if existing, err := s.certificateRepo.FindByUserAndCourse(ctx, s.db, userID, course.CourseID); err == nil {
		return existing.ToResponse(), nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	wallet, err := s.resolveWallet(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	// Issuer pays fees and holds every required signature, so the built
	// transaction is complete and ready to send.
	mintTx, err := ledger.BuildMintTransaction(ctx, s.ledger, ledger.MintParams{
		Issuer:    s.issuerKey,
		FeePayer:  s.issuerKey.PublicKey(),
		Recipient: wallet,
	})
	if err != nil {
		logger.Error("Failed to build custodial mint transaction", "error", err, "user_id", userID.String())
		return nil, model.NewAppError("LEDGER_UNAVAILABLE", "Could not prepare the mint transaction.", "", model.ErrExternalService)
	}

	signature, err := s.ledger.SendTransaction(ctx, mintTx.Tx)
	if err != nil {
		logger.Error("Failed to send custodial mint transaction", "error", err, "user_id", userID.String())
		return nil, model.NewAppError("MINT_REJECTED", "The mint transaction was rejected.", "", model.ErrLedgerRejected)
	}
	if err := s.ledger.ConfirmTransaction(ctx, signature); err != nil {
		logger.Warn("Custodial mint transaction not confirmed", "error", err, "signature", signature.String())
		return nil, model.NewAppError("MINT_NOT_CONFIRMED", "The mint transaction was not confirmed on chain.", "", model.ErrLedgerRejected)
	}

	return s.persistCertificate(ctx, userID, course, wallet.String(), mintTx.MintAddress.String(), signature.String())
}

// persistCertificate records the certificate row. Losing the insert race is
// fine; the winner's row is returned instead.
func (s *certificateService) persistCertificate(ctx context.Context, userID uuid.UUID, course *model.Course, wallet, mintAddress, signature string) (*model.CertificateResponse, error) {
	logger := middleware.GetLogger(ctx)

	certificate := &model.Certificate{
		CertificateID: uuid.New(),
		UserID:        userID,
		CourseID:      course.CourseID,
		WalletAddress: wallet,
		MintAddress:   mintAddress,
		Signature:     signature,
		Network:       s.network,
		IssuedAt:      time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.certificateRepo.Create(ctx, tx, certificate)
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			winner, ferr := s.certificateRepo.FindByUserAndCourse(ctx, s.db, userID, course.CourseID)
			if ferr != nil {
				return nil, ferr
			}
			return winner.ToResponse(), nil
		}
		return nil, err
	}
	certificate.Course = course

	logger.Info("Certificate issued",
		"user_id", userID.String(),
		"course_id", course.CourseID.String(),
		"mint_address", mintAddress,
	)

	s.notifyIssued(ctx, userID, course, mintAddress)

	return certificate.ToResponse(), nil
}

// notifyIssued emails the learner about the new certificate. Failures are
// logged and swallowed; the certificate is already durable.
func (s *certificateService) notifyIssued(ctx context.Context, userID uuid.UUID, course *model.Course, mintAddress string) {
	logger := middleware.GetLogger(ctx)

	profile, err := s.profileRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		logger.Warn("Skipping certificate notification, profile lookup failed", "error", err, "user_id", userID.String())
		return
	}

	subject := fmt.Sprintf("Your certificate for %s", course.Title)
	body := fmt.Sprintf(
		"Congratulations! Your on-chain certificate for %q has been issued.\nMint address: %s\nNetwork: %s\n",
		course.Title, mintAddress, s.network,
	)
	if err := s.mailer.Send(ctx, profile.Email, subject, body); err != nil {
		logger.Warn("Failed to send certificate notification", "error", err, "user_id", userID.String())
	}
}

func (s *certificateService) List(ctx context.Context, userID uuid.UUID) ([]*model.CertificateResponse, error) {
	certificates, err := s.certificateRepo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*model.CertificateResponse, 0, len(certificates))
	for _, certificate := range certificates {
		responses = append(responses, certificate.ToResponse())
	}
	return responses, nil
}
