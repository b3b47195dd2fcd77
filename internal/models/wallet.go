package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Типы записей журнала кошелька.
const (
	TxTypeDeposit         = "deposit"
	TxTypeWithdraw        = "withdraw"
	TxTypeBooking         = "booking"
	TxTypeReferralEarning = "referral_earning"
	TxTypeGlowCoins       = "glow_coins"
	TxTypeTip             = "tip"
	TxTypeRefund          = "refund"
)

// Статусы записей журнала.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Типы способов оплаты.
const (
	PaymentMethodMpesa       = "mpesa"
	PaymentMethodBankAccount = "bank_account"
	PaymentMethodCard        = "card"
)

// WalletBalance текущее состояние кошелька пользователя.
type WalletBalance struct {
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	GlowCoins int64           `db:"glow_coins" json:"glow_coins"`
	Currency  string          `db:"currency" json:"currency"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// WalletTransaction запись журнала. Amount хранит знаковую дельту:
// поступление положительно, списание отрицательно.
type WalletTransaction struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	Type            string          `db:"type" json:"type"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	Status          string          `db:"status" json:"status"`
	Description     *string         `db:"description" json:"description,omitempty"`
	ReferenceID     *uuid.UUID      `db:"reference_id" json:"reference_id,omitempty"`
	PaymentMethodID *uuid.UUID      `db:"payment_method_id" json:"payment_method_id,omitempty"`
	CounterpartyID  *uuid.UUID      `db:"counterparty_id" json:"counterparty_id,omitempty"`
	IdempotencyKey  *string         `db:"idempotency_key" json:"-"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// PaymentMethod сохранённый способ оплаты.
type PaymentMethod struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Type          string    `db:"type" json:"type"`
	AccountName   *string   `db:"account_name" json:"account_name,omitempty"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	ProviderName  *string   `db:"provider_name" json:"provider_name,omitempty"`
	IsDefault     bool      `db:"is_default" json:"is_default"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AddPaymentMethodInput поля нового способа оплаты.
type AddPaymentMethodInput struct {
	Type          string  `json:"type"`
	AccountName   *string `json:"account_name"`
	AccountNumber string  `json:"account_number"`
	ProviderName  *string `json:"provider_name"`
	IsDefault     bool    `json:"is_default"`
}

// LedgerEntry описывает одну запись, которую репозиторий вставит в журнал
// вместе с изменением баланса.
type LedgerEntry struct {
	UserID          uuid.UUID
	Type            string
	Amount          decimal.Decimal
	Currency        string
	Description     *string
	ReferenceID     *uuid.UUID
	PaymentMethodID *uuid.UUID
	CounterpartyID  *uuid.UUID
	IdempotencyKey  *string
}

// SameOperation сообщает, что сохранённая запись описывает ту же операцию,
// что и e. Используется при повторе по ключу идемпотентности.
func (e LedgerEntry) SameOperation(tx WalletTransaction) bool {
	return tx.UserID == e.UserID &&
		tx.Type == e.Type &&
		tx.Currency == e.Currency &&
		tx.Amount.Equal(e.Amount)
}

// ReconcileReport результат сверки журнала и баланса.
type ReconcileReport struct {
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	LedgerBalance decimal.Decimal `db:"ledger_balance" json:"ledger_balance"`
	GlowCoins     int64           `db:"glow_coins" json:"glow_coins"`
	LedgerCoins   int64           `db:"ledger_coins" json:"ledger_coins"`
	Matches       bool            `db:"-" json:"matches"`
}

// Evaluate выставляет признак совпадения.
func (r *ReconcileReport) Evaluate() {
	r.Matches = r.Balance.Equal(r.LedgerBalance) && r.GlowCoins == r.LedgerCoins
}
