package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/deevah-backend/internal/domain/valueobject"
	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/validation"
	"github.com/ignatzorin/deevah-backend/internal/ws"
)

// MaxGlowCoinsPerEarn предел начисления GlowCoins за одну операцию.
const MaxGlowCoinsPerEarn = 10_000

// WalletRepository описывает хранилище балансов и журнала.
type WalletRepository interface {
	Currency() string
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.WalletBalance, error)
	Post(ctx context.Context, entries []models.LedgerEntry) ([]models.WalletTransaction, error)
	RewardReferral(ctx context.Context, referredID uuid.UUID, fallbackReward decimal.Decimal) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*models.ReconcileReport, error)
	ListMismatches(ctx context.Context) ([]models.ReconcileReport, error)
	AddPaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	GetActivePaymentMethod(ctx context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error)
	RemovePaymentMethod(ctx context.Context, userID, id uuid.UUID) error
	ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
}

// UserLookup проверяет существование пользователя.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// OperationOptions необязательные параметры денежной операции.
type OperationOptions struct {
	PaymentMethodID *uuid.UUID
	ReferenceID     *uuid.UUID
	Description     string
	IdempotencyKey  string
}

// WalletService ведёт кошельки пользователей.
type WalletService struct {
	repo           WalletRepository
	users          UserLookup
	referralReward decimal.Decimal
	events         EventPublisher
}

// NewWalletService создаёт сервис кошелька. referralReward начисляется, если
// в приглашении не указана собственная сумма.
func NewWalletService(repo WalletRepository, users UserLookup, referralReward decimal.Decimal) *WalletService {
	return &WalletService{
		repo:           repo,
		users:          users,
		referralReward: referralReward,
	}
}

// SetEventPublisher подключает доставку событий.
func (s *WalletService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// GetBalance возвращает баланс актора.
func (s *WalletService) GetBalance(ctx context.Context, actor models.Actor) (*models.WalletBalance, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	balance, err := s.repo.GetBalance(ctx, actor.UserID)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить баланс")
	}
	return balance, nil
}

// Deposit пополняет баланс.
func (s *WalletService) Deposit(ctx context.Context, actor models.Actor, amount decimal.Decimal, opts OperationOptions) (*models.WalletTransaction, error) {
	entry, err := s.moneyEntry(ctx, actor, models.TxTypeDeposit, amount, opts)
	if err != nil {
		return nil, err
	}
	return s.postSingle(ctx, actor, entry, "не удалось пополнить баланс")
}

// Withdraw списывает средства. При нехватке возвращает INSUFFICIENT_FUNDS,
// журнал и баланс не меняются.
func (s *WalletService) Withdraw(ctx context.Context, actor models.Actor, amount decimal.Decimal, opts OperationOptions) (*models.WalletTransaction, error) {
	entry, err := s.moneyEntry(ctx, actor, models.TxTypeWithdraw, amount, opts)
	if err != nil {
		return nil, err
	}
	entry.Amount = entry.Amount.Neg()
	return s.postSingle(ctx, actor, entry, "не удалось вывести средства")
}

func (s *WalletService) moneyEntry(ctx context.Context, actor models.Actor, txType string, amount decimal.Decimal, opts OperationOptions) (models.LedgerEntry, error) {
	if err := requireActor(actor); err != nil {
		return models.LedgerEntry{}, err
	}

	amount, err := valueobject.NewAmount(amount)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	entry := models.LedgerEntry{
		UserID:      actor.UserID,
		Type:        txType,
		Amount:      amount,
		Currency:    s.repo.Currency(),
		ReferenceID: opts.ReferenceID,
	}

	if opts.PaymentMethodID != nil {
		method, err := s.repo.GetActivePaymentMethod(ctx, actor.UserID, *opts.PaymentMethodID)
		if err != nil {
			return models.LedgerEntry{}, storageErr(err, "не удалось загрузить способ оплаты")
		}
		entry.PaymentMethodID = &method.ID
	}

	if err := s.applyOptions(&entry, opts); err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

func (s *WalletService) applyOptions(entry *models.LedgerEntry, opts OperationOptions) error {
	if description := strings.TrimSpace(opts.Description); description != "" {
		if err := validationErr(validation.ValidateOptional("описание", &description, validation.MaxDescriptionLength)); err != nil {
			return err
		}
		entry.Description = &description
	}
	if opts.IdempotencyKey != "" {
		if err := validationErr(validation.ValidateIdempotencyKey(opts.IdempotencyKey)); err != nil {
			return err
		}
		key := opts.IdempotencyKey
		entry.IdempotencyKey = &key
	}
	return nil
}

func (s *WalletService) postSingle(ctx context.Context, actor models.Actor, entry models.LedgerEntry, message string) (*models.WalletTransaction, error) {
	rows, err := s.repo.Post(ctx, []models.LedgerEntry{entry})
	if err != nil {
		logger.ForUser(actor.UserID).WithFields(logrus.Fields{
			"type":   entry.Type,
			"amount": entry.Amount.String(),
			"error":  err.Error(),
		}).Warn("wallet service: операция отклонена")
		return nil, storageErr(err, message)
	}

	logger.ForUser(actor.UserID).WithFields(logrus.Fields{
		"type":           entry.Type,
		"amount":         entry.Amount.String(),
		"transaction_id": rows[0].ID,
	}).Info("wallet service: операция проведена")

	return &rows[0], nil
}

// Tip переводит чаевые мастеру. Списание и зачисление проводятся одной транзакцией.
func (s *WalletService) Tip(ctx context.Context, actor models.Actor, artistID uuid.UUID, amount decimal.Decimal, opts OperationOptions) (*models.WalletTransaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if artistID == uuid.Nil {
		return nil, apperror.Validation("artist_id обязателен")
	}
	if artistID == actor.UserID {
		return nil, apperror.Validation("нельзя отправить чаевые самому себе")
	}

	amount, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}

	recipient, err := s.users.GetByID(ctx, artistID)
	if err != nil {
		return nil, storageErr(err, "не удалось найти получателя")
	}
	if !models.IsProviderRole(recipient.Role) {
		return nil, apperror.Validation("чаевые можно отправить только мастеру")
	}

	currency := s.repo.Currency()
	sender := models.LedgerEntry{
		UserID:         actor.UserID,
		Type:           models.TxTypeTip,
		Amount:         amount.Neg(),
		Currency:       currency,
		ReferenceID:    opts.ReferenceID,
		CounterpartyID: &artistID,
	}
	if err := s.applyOptions(&sender, opts); err != nil {
		return nil, err
	}

	senderID := actor.UserID
	receiver := models.LedgerEntry{
		UserID:         artistID,
		Type:           models.TxTypeTip,
		Amount:         amount,
		Currency:       currency,
		Description:    sender.Description,
		ReferenceID:    opts.ReferenceID,
		CounterpartyID: &senderID,
	}

	rows, err := s.repo.Post(ctx, []models.LedgerEntry{sender, receiver})
	if err != nil {
		return nil, storageErr(err, "не удалось отправить чаевые")
	}

	logger.ForUser(actor.UserID).WithFields(logrus.Fields{
		"artist_id": artistID,
		"amount":    amount.String(),
	}).Info("wallet service: чаевые отправлены")

	if s.events != nil && len(rows) > 1 {
		if err := s.events.BroadcastToUser(artistID, ws.EventTipReceived, map[string]interface{}{
			"from_user_id": actor.UserID,
			"amount":       amount,
			"reference_id": opts.ReferenceID,
		}); err != nil {
			logger.ForUser(artistID).WithField("error", err.Error()).Warn("wallet service: не удалось отправить событие")
		}
	}

	return &rows[0], nil
}

// EarnGlowCoins начисляет GlowCoins.
func (s *WalletService) EarnGlowCoins(ctx context.Context, actor models.Actor, amount int64, opts OperationOptions) (*models.WalletTransaction, error) {
	if amount > MaxGlowCoinsPerEarn {
		return nil, apperror.Validation("за одну операцию можно начислить не больше 10000 GlowCoins")
	}
	entry, err := s.glowEntry(actor, amount, opts)
	if err != nil {
		return nil, err
	}
	return s.postSingle(ctx, actor, entry, "не удалось начислить GlowCoins")
}

// SpendGlowCoins списывает GlowCoins.
func (s *WalletService) SpendGlowCoins(ctx context.Context, actor models.Actor, amount int64, opts OperationOptions) (*models.WalletTransaction, error) {
	entry, err := s.glowEntry(actor, amount, opts)
	if err != nil {
		return nil, err
	}
	entry.Amount = entry.Amount.Neg()
	return s.postSingle(ctx, actor, entry, "не удалось списать GlowCoins")
}

func (s *WalletService) glowEntry(actor models.Actor, amount int64, opts OperationOptions) (models.LedgerEntry, error) {
	if err := requireActor(actor); err != nil {
		return models.LedgerEntry{}, err
	}
	if amount <= 0 {
		return models.LedgerEntry{}, apperror.Validation("количество GlowCoins должно быть положительным")
	}

	entry := models.LedgerEntry{
		UserID:      actor.UserID,
		Type:        models.TxTypeGlowCoins,
		Amount:      decimal.NewFromInt(amount),
		Currency:    valueobject.GlowCurrency,
		ReferenceID: opts.ReferenceID,
	}
	if err := s.applyOptions(&entry, opts); err != nil {
		return models.LedgerEntry{}, err
	}
	return entry, nil
}

// RewardReferral начисляет бонус пригласившему, если у пользователя есть
// ожидающее приглашение. Возвращает nil, nil, если начислять нечего.
func (s *WalletService) RewardReferral(ctx context.Context, referredID uuid.UUID) (*models.WalletTransaction, error) {
	credited, err := s.repo.RewardReferral(ctx, referredID, s.referralReward)
	if err != nil {
		return nil, storageErr(err, "не удалось начислить реферальный бонус")
	}
	if credited != nil {
		logger.ForUser(credited.UserID).WithFields(logrus.Fields{
			"referred_id": referredID,
			"amount":      credited.Amount.String(),
		}).Info("wallet service: реферальный бонус начислен")
	}
	return credited, nil
}

// ListTransactions возвращает журнал актора.
func (s *WalletService) ListTransactions(ctx context.Context, actor models.Actor, limit, offset int) ([]models.WalletTransaction, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	transactions, err := s.repo.ListTransactions(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить операции")
	}
	return transactions, nil
}

// Reconcile сверяет баланс актора с суммой журнала.
func (s *WalletService) Reconcile(ctx context.Context, actor models.Actor) (*models.ReconcileReport, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBalance(ctx, actor.UserID); err != nil {
		return nil, storageErr(err, "не удалось загрузить баланс")
	}
	report, err := s.repo.Reconcile(ctx, actor.UserID)
	if err != nil {
		return nil, storageErr(err, "не удалось сверить баланс")
	}
	return report, nil
}

// ReconcileAll возвращает кошельки, где баланс расходится с журналом.
func (s *WalletService) ReconcileAll(ctx context.Context) ([]models.ReconcileReport, error) {
	reports, err := s.repo.ListMismatches(ctx)
	if err != nil {
		return nil, storageErr(err, "не удалось сверить балансы")
	}
	return reports, nil
}

// AddPaymentMethod сохраняет способ оплаты.
func (s *WalletService) AddPaymentMethod(ctx context.Context, actor models.Actor, in models.AddPaymentMethodInput) (*models.PaymentMethod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(in.AccountNumber)
	if err := validationErr(validation.ValidatePaymentAccount(in.Type, number)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateOptional("имя владельца", in.AccountName, validation.MaxDisplayNameLength)); err != nil {
		return nil, err
	}
	if err := validationErr(validation.ValidateOptional("провайдер", in.ProviderName, validation.MaxDisplayNameLength)); err != nil {
		return nil, err
	}

	method := &models.PaymentMethod{
		UserID:        actor.UserID,
		Type:          in.Type,
		AccountName:   in.AccountName,
		AccountNumber: number,
		ProviderName:  in.ProviderName,
		IsDefault:     in.IsDefault,
		IsActive:      true,
	}
	if err := s.repo.AddPaymentMethod(ctx, method); err != nil {
		return nil, storageErr(err, "не удалось сохранить способ оплаты")
	}
	return method, nil
}

// RemovePaymentMethod деактивирует способ оплаты актора.
func (s *WalletService) RemovePaymentMethod(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.repo.RemovePaymentMethod(ctx, actor.UserID, id); err != nil {
		return storageErr(err, "не удалось удалить способ оплаты")
	}
	return nil
}

// ListPaymentMethods возвращает активные способы оплаты актора.
func (s *WalletService) ListPaymentMethods(ctx context.Context, actor models.Actor) ([]models.PaymentMethod, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	methods, err := s.repo.ListPaymentMethods(ctx, actor.UserID)
	if err != nil {
		return nil, storageErr(err, "не удалось загрузить способы оплаты")
	}
	return methods, nil
}
