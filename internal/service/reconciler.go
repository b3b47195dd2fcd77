package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/deevah-backend/internal/logger"
	"github.com/ignatzorin/deevah-backend/internal/models"
)

// MismatchFinder возвращает кошельки, баланс которых расходится с журналом.
type MismatchFinder interface {
	ReconcileAll(ctx context.Context) ([]models.ReconcileReport, error)
}

// Reconciler периодически сверяет балансы кошельков с журналом операций.
type Reconciler struct {
	finder    MismatchFinder
	interval  time.Duration
	timeout   time.Duration
	scheduler gocron.Scheduler
}

// NewReconciler создаёт планировщик сверки.
func NewReconciler(finder MismatchFinder, interval time.Duration) (*Reconciler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("reconciler: create scheduler %w", err)
	}
	return &Reconciler{
		finder:    finder,
		interval:  interval,
		timeout:   time.Minute,
		scheduler: scheduler,
	}, nil
}

// Start регистрирует задачу и запускает планировщик.
func (r *Reconciler) Start() error {
	if _, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			r.RunOnce(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("reconciler: register job %w", err)
	}

	r.scheduler.Start()
	logger.Log.WithField("interval", r.interval.String()).Info("reconciler: сверка кошельков запущена")
	return nil
}

// RunOnce выполняет одну сверку и возвращает количество расхождений.
func (r *Reconciler) RunOnce(ctx context.Context) int {
	reports, err := r.finder.ReconcileAll(ctx)
	if err != nil {
		logger.Log.WithField("error", err.Error()).Error("reconciler: сверка не выполнена")
		return 0
	}

	for _, report := range reports {
		logger.ForUser(report.UserID).WithFields(logrus.Fields{
			"balance":        report.Balance.String(),
			"ledger_balance": report.LedgerBalance.String(),
			"glow_coins":     report.GlowCoins,
			"ledger_coins":   report.LedgerCoins,
		}).Error("reconciler: баланс расходится с журналом")
	}
	return len(reports)
}

// Shutdown останавливает планировщик.
func (r *Reconciler) Shutdown() error {
	return r.scheduler.Shutdown()
}
