package payments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bugabuga/commerce-backend/internal/orders"
	"github.com/bugabuga/commerce-backend/internal/users"
	"github.com/bugabuga/commerce-backend/pkg/db/models"
	"github.com/bugabuga/commerce-backend/pkg/enums"
	pkgerrors "github.com/bugabuga/commerce-backend/pkg/errors"
)

const defaultRefundReason = "customer-requested refund"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service settles pending orders and drives the refund state machine. There
// is no external gateway; references are generated locally per method.
type Service interface {
	ProcessPayment(ctx context.Context, userID, orderID uuid.UUID, method enums.PaymentMethod, paymentData map[string]string) (*orders.View, error)
	GetPaymentInfo(ctx context.Context, paymentID uuid.UUID) (*Info, error)
	GetUserPaymentHistory(ctx context.Context, userID uuid.UUID) (*History, error)
	ProcessRefund(ctx context.Context, paymentID uuid.UUID, refundData map[string]string) (*RefundSummary, error)
}

type service struct {
	repo   Repository
	orders orders.Repository
	users  users.Repository
	tx     txRunner
	now    func() time.Time
}

// NewService builds the payments service with the required dependencies.
func NewService(repo Repository, ordersRepo orders.Repository, usersRepo users.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:   repo,
		orders: ordersRepo,
		users:  usersRepo,
		tx:     tx,
		now:    time.Now,
	}, nil
}

func (s *service) ProcessPayment(ctx context.Context, userID, orderID uuid.UUID, method enums.PaymentMethod, paymentData map[string]string) (*orders.View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	var view *orders.View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeValidation, "order does not belong to user")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeValidation, "order already processed or canceled")
		}

		// payment data is checked only once the order is known to be payable
		if !method.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
		}
		if method.RequiresCardData() {
			if strings.TrimSpace(paymentData["cardNumber"]) == "" || strings.TrimSpace(paymentData["cvv"]) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "incomplete card data")
			}
		}

		paidAt := s.now()
		payment := &models.Payment{
			OrderID:   order.ID,
			Amount:    order.Total,
			Method:    method,
			Status:    enums.PaymentStatusCompleted,
			Reference: reference(method, paidAt),
			PaidAt:    paidAt,
		}
		created, err := repo.Create(ctx, payment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		if err := ordersRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}

		order.Status = enums.OrderStatusPaid
		order.Payment = created
		projected := orders.NewView(order)
		view = &projected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) GetPaymentInfo(ctx context.Context, paymentID uuid.UUID) (*Info, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	info := NewInfo(payment)
	return &info, nil
}

func (s *service) GetUserPaymentHistory(ctx context.Context, userID uuid.UUID) (*History, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	paid, err := s.orders.ListByUserInStatuses(ctx, userID, enums.PaidOrderStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list paid orders")
	}

	records := make([]HistoryRecord, 0, len(paid))
	for i := range paid {
		order := &paid[i]
		if order.Payment == nil {
			continue
		}
		records = append(records, HistoryRecord{
			PaymentID:   order.Payment.ID,
			OrderID:     order.ID,
			Amount:      order.Payment.Amount,
			Method:      order.Payment.Method,
			Reference:   order.Payment.Reference,
			PaidAt:      order.Payment.PaidAt,
			Status:      order.Payment.Status,
			OrderStatus: order.Status,
		})
	}
	return &History{Payments: records, Count: len(records)}, nil
}

func (s *service) ProcessRefund(ctx context.Context, paymentID uuid.UUID, refundData map[string]string) (*RefundSummary, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	reason := strings.TrimSpace(refundData["motivo"])
	if reason == "" {
		reason = defaultRefundReason
	}

	var summary *RefundSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		payment, err := repo.FindByID(ctx, paymentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment.Status != enums.PaymentStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment is not refundable")
		}

		if err := repo.UpdateStatus(ctx, payment.ID, enums.PaymentStatusRefunded); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment")
		}
		if err := ordersRepo.UpdateStatus(ctx, payment.OrderID, enums.OrderStatusCanceled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		summary = &RefundSummary{
			PaymentID:  payment.ID,
			OrderID:    payment.OrderID,
			Amount:     payment.Amount,
			Status:     enums.PaymentStatusRefunded,
			Reason:     reason,
			RefundedAt: s.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *service) findPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

// reference builds the local settlement reference, e.g. CARD-REF-1735689600000.
func reference(method enums.PaymentMethod, at time.Time) string {
	var prefix string
	switch method {
	case enums.PaymentMethodCreditCard, enums.PaymentMethodDebitCard:
		prefix = "CARD"
	case enums.PaymentMethodTransfer:
		prefix = "TRANS"
	case enums.PaymentMethodPaypal:
		prefix = "PP"
	default:
		prefix = "CASH"
	}
	return prefix + "-REF-" + strconv.FormatInt(at.UnixMilli(), 10)
}
