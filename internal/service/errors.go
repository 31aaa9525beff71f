package service

import (
	"errors"

	"github.com/imobiliare-next/internal/media"
	"github.com/imobiliare-next/internal/queue"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrInvalidPassword           = errors.New("invalid password")
	ErrWeakPassword              = errors.New("weak password")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrUserDisabled              = errors.New("user disabled")
	ErrAnnouncementNotFound      = errors.New("announcement not found")
	ErrPackageNotFound           = errors.New("announcement package not found")
	ErrPromotionPackageNotFound  = errors.New("promotion package not found")
	ErrPackageInvalid            = errors.New("package invalid")
	ErrPackageInUse              = errors.New("package referenced by payments")
	ErrPaymentInvalid            = errors.New("payment invalid")
	ErrPaymentDuplicate          = errors.New("payment already recorded")
	ErrPaymentAmountMismatch     = errors.New("payment amount mismatch")
	ErrPaymentGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrDiscountNotFound          = errors.New("discount not found")
	ErrDiscountInvalid           = errors.New("discount invalid")
	ErrDiscountCodeExists        = errors.New("discount code already exists")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrMediaStoreUnavailable     = media.ErrMediaStoreUnavailable
	ErrQueueUnavailable          = queue.ErrQueueDisabled
)
