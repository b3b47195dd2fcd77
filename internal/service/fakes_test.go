package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/deevah-backend/internal/domain/valueobject"
	"github.com/ignatzorin/deevah-backend/internal/models"
	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

// fakeServices хранит каталог услуг в памяти.
type fakeServices struct {
	items map[uuid.UUID]*models.Service
}

func newFakeServices(services ...*models.Service) *fakeServices {
	f := &fakeServices{items: make(map[uuid.UUID]*models.Service)}
	for _, s := range services {
		f.items[s.ID] = s
	}
	return f
}

func (f *fakeServices) GetService(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s, ok := f.items[id]
	if !ok || !s.IsActive {
		return nil, apperror.ErrServiceNotFound
	}
	copied := *s
	return &copied, nil
}

// fakeBookings хранит бронирования в памяти. UpdateStatus сериализуется мьютексом,
// как блокировка строки в БД.
type fakeBookings struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Booking
	order []uuid.UUID

	// Следующий List после снимка данных сообщает в listStarted и ждёт listRelease.
	listStarted chan struct{}
	listRelease chan struct{}
}

func (f *fakeBookings) holdNextList() (started, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listStarted = make(chan struct{})
	f.listRelease = make(chan struct{})
	return f.listStarted, f.listRelease
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{items: make(map[uuid.UUID]*models.Booking)}
}

func (f *fakeBookings) Create(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking.ID = uuid.New()
	booking.Status = string(valueobject.BookingStatusPending)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	copied := *booking
	f.items[booking.ID] = &copied
	f.order = append(f.order, booking.ID)
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return nil, apperror.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uuid.UUID, decide func(current *models.Booking) error) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.items[id]
	if !ok {
		return nil, apperror.ErrBookingNotFound
	}
	working := *b
	if err := decide(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	f.items[id] = &working
	copied := working
	return &copied, nil
}

func (f *fakeBookings) List(_ context.Context, userID uuid.UUID, filter models.BookingListFilter) ([]models.Booking, error) {
	f.mu.Lock()
	out := f.list(userID, filter)
	started, release := f.listStarted, f.listRelease
	f.listStarted, f.listRelease = nil, nil
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	return out, nil
}

func (f *fakeBookings) list(userID uuid.UUID, filter models.BookingListFilter) []models.Booking {
	out := []models.Booking{}
	for i := len(f.order) - 1; i >= 0; i-- {
		b := f.items[f.order[i]]
		if filter.View == models.BookingViewProvider {
			if b.ProviderID == nil || *b.ProviderID != userID {
				continue
			}
		} else if b.ClientID != userID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out
}

func (f *fakeBookings) SumCompletedByClient(_ context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	for _, b := range f.items {
		if b.ClientID == clientID && b.Status == string(valueobject.BookingStatusCompleted) {
			total = total.Add(b.TotalAmount)
		}
	}
	return total, nil
}

// fakeUsers реализует UserLookup.
type fakeUsers struct {
	items map[uuid.UUID]*models.User
}

func newFakeUsers(ids ...uuid.UUID) *fakeUsers {
	f := &fakeUsers{items: make(map[uuid.UUID]*models.User)}
	for _, id := range ids {
		f.items[id] = &models.User{ID: id, IsActive: true}
	}
	return f
}

func (f *fakeUsers) withRole(id uuid.UUID, role string) *fakeUsers {
	f.items[id].Role = role
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return u, nil
}

// fakeWallet повторяет семантику WalletRepository.Post в памяти:
// всё или ничего, запрет отрицательного баланса, идемпотентность по ключу.
type fakeWallet struct {
	mu        sync.Mutex
	currency  string
	balances  map[uuid.UUID]*models.WalletBalance
	txs       []models.WalletTransaction
	referrals map[uuid.UUID]*models.Referral
	methods   map[uuid.UUID]*models.PaymentMethod
	postErr   error
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		currency:  valueobject.DefaultCurrency,
		balances:  make(map[uuid.UUID]*models.WalletBalance),
		referrals: make(map[uuid.UUID]*models.Referral),
		methods:   make(map[uuid.UUID]*models.PaymentMethod),
	}
}

func (f *fakeWallet) Currency() string { return f.currency }

func (f *fakeWallet) balance(userID uuid.UUID) *models.WalletBalance {
	b, ok := f.balances[userID]
	if !ok {
		b = &models.WalletBalance{UserID: userID, Currency: f.currency, UpdatedAt: time.Now()}
		f.balances[userID] = b
	}
	return b
}

func (f *fakeWallet) GetBalance(_ context.Context, userID uuid.UUID) (*models.WalletBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *f.balance(userID)
	return &copied, nil
}

func (f *fakeWallet) Post(_ context.Context, entries []models.LedgerEntry) ([]models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.post(entries)
}

func (f *fakeWallet) post(entries []models.LedgerEntry) ([]models.WalletTransaction, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}

	if key := entries[0].IdempotencyKey; key != nil {
		var existing []models.WalletTransaction
		for _, tx := range f.txs {
			if tx.UserID == entries[0].UserID && tx.IdempotencyKey != nil && *tx.IdempotencyKey == *key {
				existing = append(existing, tx)
			}
		}
		if len(existing) > 0 {
			if !entries[0].SameOperation(existing[0]) {
				return nil, apperror.ErrIdempotencyKeyReused
			}
			return existing, nil
		}
	}

	next := make(map[uuid.UUID]models.WalletBalance)
	for _, e := range entries {
		b, ok := next[e.UserID]
		if !ok {
			b = *f.balance(e.UserID)
		}
		if e.Currency == valueobject.GlowCurrency {
			b.GlowCoins += e.Amount.IntPart()
			if b.GlowCoins < 0 {
				return nil, apperror.ErrInsufficientCoins
			}
		} else {
			b.Balance = b.Balance.Add(e.Amount)
			if b.Balance.IsNegative() {
				return nil, apperror.ErrInsufficientFunds
			}
		}
		next[e.UserID] = b
	}

	recorded := make([]models.WalletTransaction, 0, len(entries))
	for _, e := range entries {
		tx := models.WalletTransaction{
			ID:              uuid.New(),
			UserID:          e.UserID,
			Type:            e.Type,
			Amount:          e.Amount,
			Currency:        e.Currency,
			Status:          models.TxStatusCompleted,
			Description:     e.Description,
			ReferenceID:     e.ReferenceID,
			PaymentMethodID: e.PaymentMethodID,
			CounterpartyID:  e.CounterpartyID,
			IdempotencyKey:  e.IdempotencyKey,
			CreatedAt:       time.Now(),
		}
		f.txs = append(f.txs, tx)
		recorded = append(recorded, tx)
	}
	for userID, b := range next {
		b := b
		f.balances[userID] = &b
	}
	return recorded, nil
}

func (f *fakeWallet) RewardReferral(_ context.Context, referredID uuid.UUID, fallbackReward decimal.Decimal) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.referrals[referredID]
	if !ok || ref.Status != models.ReferralStatusPending {
		return nil, nil
	}
	reward := ref.RewardAmount
	if !reward.IsPositive() {
		reward = fallbackReward
	}
	if !reward.IsPositive() {
		return nil, nil
	}
	rows, err := f.post([]models.LedgerEntry{{
		UserID:         ref.ReferrerID,
		Type:           models.TxTypeReferralEarning,
		Amount:         reward,
		Currency:       f.currency,
		ReferenceID:    &ref.ID,
		CounterpartyID: &referredID,
	}})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	ref.Status = models.ReferralStatusRewarded
	ref.RewardAmount = reward
	ref.RewardedAt = &now
	return &rows[0], nil
}

func (f *fakeWallet) ListTransactions(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.WalletTransaction{}
	for i := len(f.txs) - 1; i >= 0; i-- {
		if f.txs[i].UserID == userID {
			out = append(out, f.txs[i])
		}
	}
	if offset >= len(out) {
		return []models.WalletTransaction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWallet) report(userID uuid.UUID) models.ReconcileReport {
	b := f.balance(userID)
	r := models.ReconcileReport{UserID: userID, Balance: b.Balance, GlowCoins: b.GlowCoins, LedgerBalance: decimal.Zero}
	for _, tx := range f.txs {
		if tx.UserID != userID || tx.Status != models.TxStatusCompleted {
			continue
		}
		if tx.Currency == valueobject.GlowCurrency {
			r.LedgerCoins += tx.Amount.IntPart()
		} else if tx.Currency == f.currency {
			r.LedgerBalance = r.LedgerBalance.Add(tx.Amount)
		}
	}
	r.Evaluate()
	return r
}

func (f *fakeWallet) Reconcile(_ context.Context, userID uuid.UUID) (*models.ReconcileReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.report(userID)
	return &r, nil
}

func (f *fakeWallet) ListMismatches(_ context.Context) ([]models.ReconcileReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(f.balances))
	for id := range f.balances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	out := []models.ReconcileReport{}
	for _, id := range ids {
		if r := f.report(id); !r.Matches {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeWallet) AddPaymentMethod(_ context.Context, method *models.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method.IsDefault {
		for _, m := range f.methods {
			if m.UserID == method.UserID {
				m.IsDefault = false
			}
		}
	}
	method.ID = uuid.New()
	method.IsActive = true
	method.CreatedAt = time.Now()
	copied := *method
	f.methods[method.ID] = &copied
	return nil
}

func (f *fakeWallet) GetActivePaymentMethod(_ context.Context, userID, id uuid.UUID) (*models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if !ok || m.UserID != userID || !m.IsActive {
		return nil, apperror.ErrPaymentMethodNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeWallet) RemovePaymentMethod(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.methods[id]
	if !ok || m.UserID != userID || !m.IsActive {
		return apperror.ErrPaymentMethodNotFound
	}
	m.IsActive = false
	m.IsDefault = false
	return nil
}

func (f *fakeWallet) ListPaymentMethods(_ context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.PaymentMethod{}
	for _, m := range f.methods {
		if m.UserID == userID && m.IsActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

// recordedEvent событие, отправленное через EventPublisher.
type recordedEvent struct {
	UserID uuid.UUID
	Event  string
	Data   interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{UserID: userID, Event: event, Data: data})
	return nil
}

func (p *recordingPublisher) byEvent(event string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
