// internal/model/certificate.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is the durable record of an issued on-chain credential.
// The (user, course) unique index enforces exactly-once issuance: only one
// writer's insert succeeds, losers re-read and return the winner's row.
type Certificate struct {
	CertificateID uuid.UUID `gorm:"type:uuid;primaryKey" json:"certificate_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_cert,unique" json:"user_id"`
	CourseID      uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_cert,unique" json:"course_id"`
	WalletAddress string    `gorm:"not null" json:"wallet_address"`
	MintAddress   string    `gorm:"not null" json:"mint_address"`
	Signature     string    `gorm:"not null" json:"signature"`
	Network       string    `gorm:"not null" json:"network"`
	IssuedAt      time.Time `gorm:"not null" json:"issued_at"`

	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"-"`
}

func (Certificate) TableName() string {
	return "course_certificates"
}

// CertificateResponse is the client-facing certificate shape.
type CertificateResponse struct {
	CourseID      uuid.UUID `json:"course_id"`
	CourseTitle   string    `json:"course_title,omitempty"`
	WalletAddress string    `json:"wallet_address"`
	MintAddress   string    `json:"mint_address"`
	Signature     string    `json:"signature"`
	Network       string    `json:"network"`
	IssuedAt      time.Time `json:"issued_at"`
}

func (c *Certificate) ToResponse() *CertificateResponse {
	resp := &CertificateResponse{
		CourseID:      c.CourseID,
		WalletAddress: c.WalletAddress,
		MintAddress:   c.MintAddress,
		Signature:     c.Signature,
		Network:       c.Network,
		IssuedAt:      c.IssuedAt,
	}
	if c.Course != nil {
		resp.CourseTitle = c.Course.Title
	}
	return resp
}

// PrepareCertificateRequest asks for a partially-signed mint transaction
// the learner's wallet will co-sign.
type PrepareCertificateRequest struct {
	CourseRef     string `json:"course_ref" validate:"required"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

// PrepareCertificateResponse carries either the transaction to sign or the
// already-issued certificate.
type PrepareCertificateResponse struct {
	AlreadyIssued         bool                 `json:"already_issued"`
	SerializedTransaction string               `json:"serialized_transaction,omitempty"`
	MintAddress           string               `json:"mint_address,omitempty"`
	Certificate           *CertificateResponse `json:"certificate,omitempty"`
}

// ConfirmCertificateRequest finalizes a learner-signed mint transaction.
type ConfirmCertificateRequest struct {
	CourseRef   string `json:"course_ref" validate:"required"`
	MintAddress string `json:"mint_address" validate:"required"`
	Signature   string `json:"signature" validate:"required"`
}

// IssueCertificateRequest triggers the custodial (issuer-pays) path.
type IssueCertificateRequest struct {
	CourseRef string `json:"course_ref" validate:"required"`
}
