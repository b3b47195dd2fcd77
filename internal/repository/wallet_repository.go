package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/domain/valueobject"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
	"github.com/ignatzorin/deevah-backend/internal/repository/common"
)

const walletTxColumns = `id, user_id, type, amount, currency, status, description, reference_id,
	payment_method_id, counterparty_id, idempotency_key, created_at`

const paymentMethodColumns = `id, user_id, type, account_name, account_number, provider_name, is_default, is_active, created_at`

// WalletRepository ведёт балансы и журнал операций кошелька.
// Любое изменение баланса идёт через Post: строки баланса блокируются,
// записи журнала вставляются и баланс обновляется в одной транзакции.
type WalletRepository struct {
	db       *sqlx.DB
	currency string
}

// NewWalletRepository создаёт репозиторий. currency задаёт валюту денежного баланса.
func NewWalletRepository(db *sqlx.DB, currency string) *WalletRepository {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &WalletRepository{db: db, currency: currency}
}

// Currency возвращает валюту денежного баланса.
func (r *WalletRepository) Currency() string {
	return r.currency
}

// GetBalance возвращает баланс пользователя, создаёт строку если её нет.
func (r *WalletRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*models.WalletBalance, error) {
	var balance models.WalletBalance
	query := `
		INSERT INTO wallet_balances (user_id, balance, glow_coins, currency)
		VALUES ($1, 0, 0, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, balance, glow_coins, currency, updated_at
	`
	if err := r.db.GetContext(ctx, &balance, query, userID, r.currency); err != nil {
		return nil, fmt.Errorf("wallet repository: get balance %w", err)
	}
	return &balance, nil
}

// Post атомарно применяет записи журнала к балансам.
//
// Если у первой записи задан IdempotencyKey и такая запись у пользователя уже есть,
// возвращаются ранее сохранённые записи и ничего не меняется. Если ключ занят
// операцией с другим типом, суммой или валютой, возвращается
// apperror.ErrIdempotencyKeyReused. Проверка выполняется после блокировки
// строки баланса, поэтому параллельные повторы сериализуются.
// Если итоговый баланс или количество GlowCoins уходит в минус, возвращается
// apperror.ErrInsufficientFunds / ErrInsufficientCoins и транзакция откатывается.
func (r *WalletRepository) Post(ctx context.Context, entries []models.LedgerEntry) ([]models.WalletTransaction, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("wallet repository: post без записей")
	}

	var result []models.WalletTransaction
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		result, err = r.postTx(ctx, tx, entries)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *WalletRepository) postTx(ctx context.Context, tx *sqlx.Tx, entries []models.LedgerEntry) ([]models.WalletTransaction, error) {
	balances, err := r.lockBalances(ctx, tx, entries)
	if err != nil {
		return nil, err
	}

	initiator := entries[0]
	if initiator.IdempotencyKey != nil {
		existing := []models.WalletTransaction{}
		query := `SELECT ` + walletTxColumns + ` FROM wallet_transactions
			WHERE user_id = $1 AND idempotency_key = $2 ORDER BY created_at`
		if err := tx.SelectContext(ctx, &existing, query, initiator.UserID, *initiator.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("wallet repository: idempotency lookup %w", err)
		}
		if len(existing) > 0 {
			if !initiator.SameOperation(existing[0]) {
				return nil, apperror.ErrIdempotencyKeyReused
			}
			return existing, nil
		}
	}

	for _, entry := range entries {
		balance := balances[entry.UserID]
		if entry.Currency == valueobject.GlowCurrency {
			balance.GlowCoins += entry.Amount.IntPart()
			if balance.GlowCoins < 0 {
				return nil, apperror.ErrInsufficientCoins
			}
			continue
		}
		balance.Balance = balance.Balance.Add(entry.Amount)
		if balance.Balance.IsNegative() {
			return nil, apperror.ErrInsufficientFunds
		}
	}

	recorded := make([]models.WalletTransaction, 0, len(entries))
	insert := `
		INSERT INTO wallet_transactions (user_id, type, amount, currency, status, description, reference_id,
			payment_method_id, counterparty_id, idempotency_key)
		VALUES ($1, $2, $3, $4, 'completed', $5, $6, $7, $8, $9)
		RETURNING ` + walletTxColumns
	for _, entry := range entries {
		var row models.WalletTransaction
		if err := tx.GetContext(ctx, &row, insert,
			entry.UserID,
			entry.Type,
			entry.Amount,
			entry.Currency,
			entry.Description,
			entry.ReferenceID,
			entry.PaymentMethodID,
			entry.CounterpartyID,
			entry.IdempotencyKey,
		); err != nil {
			return nil, fmt.Errorf("wallet repository: insert transaction %w", err)
		}
		recorded = append(recorded, row)
	}

	for _, userID := range sortedUserIDs(entries) {
		balance := balances[userID]
		if _, err := tx.ExecContext(ctx, `
			UPDATE wallet_balances SET balance = $2, glow_coins = $3, updated_at = NOW()
			WHERE user_id = $1
		`, userID, balance.Balance, balance.GlowCoins); err != nil {
			return nil, fmt.Errorf("wallet repository: update balance %w", err)
		}
	}

	return recorded, nil
}

// lockBalances создаёт недостающие строки баланса и блокирует их в порядке id.
func (r *WalletRepository) lockBalances(ctx context.Context, tx *sqlx.Tx, entries []models.LedgerEntry) (map[uuid.UUID]*models.WalletBalance, error) {
	balances := make(map[uuid.UUID]*models.WalletBalance)
	for _, userID := range sortedUserIDs(entries) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallet_balances (user_id, balance, glow_coins, currency)
			VALUES ($1, 0, 0, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, userID, r.currency); err != nil {
			return nil, fmt.Errorf("wallet repository: ensure balance %w", err)
		}

		var balance models.WalletBalance
		if err := tx.GetContext(ctx, &balance, `
			SELECT user_id, balance, glow_coins, currency, updated_at
			FROM wallet_balances WHERE user_id = $1 FOR UPDATE
		`, userID); err != nil {
			return nil, fmt.Errorf("wallet repository: lock balance %w", err)
		}
		balances[userID] = &balance
	}
	return balances, nil
}

func sortedUserIDs(entries []models.LedgerEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		ids = append(ids, e.UserID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// RewardReferral отмечает ожидающее приглашение приглашённого пользователя
// как вознаграждённое и начисляет бонус пригласившему. Возвращает nil, nil,
// если ожидающего приглашения нет.
func (r *WalletRepository) RewardReferral(ctx context.Context, referredID uuid.UUID, fallbackReward decimal.Decimal) (*models.WalletTransaction, error) {
	var credited *models.WalletTransaction

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		referral, err := common.GetOne[models.Referral](ctx, tx, errNoPendingReferral, `
			SELECT id, referrer_id, referred_id, status, reward_amount, rewarded_at, created_at
			FROM referrals WHERE referred_id = $1 AND status = 'pending'
			FOR UPDATE
		`, referredID)
		if err != nil {
			return err
		}

		reward := referral.RewardAmount
		if !reward.IsPositive() {
			reward = fallbackReward
		}
		if !reward.IsPositive() {
			return errNoPendingReferral
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE referrals SET status = 'rewarded', reward_amount = $2, rewarded_at = NOW()
			WHERE id = $1
		`, referral.ID, reward); err != nil {
			return fmt.Errorf("wallet repository: mark referral %w", err)
		}

		description := "Бонус за приглашение"
		rows, err := r.postTx(ctx, tx, []models.LedgerEntry{{
			UserID:         referral.ReferrerID,
			Type:           models.TxTypeReferralEarning,
			Amount:         reward,
			Currency:       r.currency,
			Description:    &description,
			ReferenceID:    &referral.ID,
			CounterpartyID: &referredID,
		}})
		if err != nil {
			return err
		}
		credited = &rows[0]
		return nil
	})
	if errors.Is(err, errNoPendingReferral) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return credited, nil
}

// errNoPendingReferral внутренний маркер отсутствия приглашения.
var errNoPendingReferral = errors.New("wallet repository: нет ожидающего приглашения")

// ListTransactions возвращает журнал пользователя, новые сначала.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	transactions := []models.WalletTransaction{}
	query := `SELECT ` + walletTxColumns + ` FROM wallet_transactions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &transactions, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("wallet repository: list transactions %w", err)
	}
	return transactions, nil
}

const reconcileQuery = `
	SELECT b.user_id, b.balance, b.glow_coins,
		COALESCE((SELECT SUM(t.amount) FROM wallet_transactions t
			WHERE t.user_id = b.user_id AND t.currency = b.currency AND t.status = 'completed'), 0) AS ledger_balance,
		COALESCE((SELECT SUM(t.amount) FROM wallet_transactions t
			WHERE t.user_id = b.user_id AND t.currency = 'GLOW' AND t.status = 'completed'), 0)::BIGINT AS ledger_coins
	FROM wallet_balances b`

// Reconcile сверяет баланс пользователя с суммой его журнала.
func (r *WalletRepository) Reconcile(ctx context.Context, userID uuid.UUID) (*models.ReconcileReport, error) {
	var report models.ReconcileReport
	if err := r.db.GetContext(ctx, &report, reconcileQuery+` WHERE b.user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: reconcile %w", err)
	}
	report.Evaluate()
	return &report, nil
}

// ListMismatches возвращает кошельки, у которых баланс расходится с журналом.
func (r *WalletRepository) ListMismatches(ctx context.Context) ([]models.ReconcileReport, error) {
	reports := []models.ReconcileReport{}
	query := `SELECT * FROM (` + reconcileQuery + `) s
		WHERE s.balance <> s.ledger_balance OR s.glow_coins <> s.ledger_coins`
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("wallet repository: list mismatches %w", err)
	}
	for i := range reports {
		reports[i].Evaluate()
	}
	return reports, nil
}

// AddPaymentMethod сохраняет способ оплаты. Новый способ по умолчанию снимает флаг с остальных.
func (r *WalletRepository) AddPaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if method.IsDefault {
			if _, err := tx.ExecContext(ctx, `
				UPDATE payment_methods SET is_default = FALSE
				WHERE user_id = $1 AND is_default = TRUE
			`, method.UserID); err != nil {
				return fmt.Errorf("wallet repository: reset default %w", err)
			}
		}

		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO payment_methods (user_id, type, account_name, account_number, provider_name, is_default, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			RETURNING id, is_active, created_at
		`,
			method.UserID,
			method.Type,
			method.AccountName,
			method.AccountNumber,
			method.ProviderName,
			method.IsDefault,
		).Scan(&method.ID, &method.IsActive, &method.CreatedAt); err != nil {
			return fmt.Errorf("wallet repository: add payment method %w", err)
		}
		return nil
	})
}

// GetActivePaymentMethod возвращает активный способ оплаты пользователя.
func (r *WalletRepository) GetActivePaymentMethod(ctx context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error) {
	method, err := common.GetOne[models.PaymentMethod](ctx, r.db, apperror.ErrPaymentMethodNotFound,
		`SELECT `+paymentMethodColumns+` FROM payment_methods WHERE id = $1 AND user_id = $2 AND is_active = TRUE`,
		id, userID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("wallet repository: get payment method %w", err)
	}
	return method, err
}

// RemovePaymentMethod мягко удаляет способ оплаты.
func (r *WalletRepository) RemovePaymentMethod(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_methods SET is_active = FALSE, is_default = FALSE
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE
	`, id, userID)
	if err != nil {
		return fmt.Errorf("wallet repository: remove payment method %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("wallet repository: remove payment method rows affected %w", err)
	}
	if rowsAffected == 0 {
		return apperror.ErrPaymentMethodNotFound
	}
	return nil
}

// ListPaymentMethods возвращает активные способы оплаты, основной первым.
func (r *WalletRepository) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	methods := []models.PaymentMethod{}
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods
		WHERE user_id = $1 AND is_active = TRUE ORDER BY is_default DESC, created_at DESC`
	if err := r.db.SelectContext(ctx, &methods, query, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: list payment methods %w", err)
	}
	return methods, nil
}
