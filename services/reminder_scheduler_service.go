package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashbook/utils"
)

// ReminderSchedulerService периодически напоминает администраторам о непроверенных транзакциях
type ReminderSchedulerService struct {
	transactions TransactionStore
	users        UserStore
	notifier     Notifier
	interval     time.Duration
}

// NewReminderSchedulerService создает новый экземпляр ReminderSchedulerService
func NewReminderSchedulerService(transactions TransactionStore, users UserStore, notifier Notifier, interval time.Duration) *ReminderSchedulerService {
	return &ReminderSchedulerService{
		transactions: transactions,
		users:        users,
		notifier:     notifier,
		interval:     interval,
	}
}

// Start запускает планировщик. Канал закрывается после остановки по ctx.
func (s *ReminderSchedulerService) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(s.interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				utils.LogInfo("Планировщик напоминаний остановлен")
				return
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					utils.LogError("Ошибка при отправке напоминаний: %v", err)
				}
			}
		}
	}()

	return done
}

// RunOnce отправляет каждому администратору сводку непроверенных транзакций
func (s *ReminderSchedulerService) RunOnce(ctx context.Context) error {
	start := time.Now()

	pending, err := s.transactions.CountPendingByBranch(ctx)
	if err != nil {
		return fmt.Errorf("ошибка подсчета непроверенных транзакций: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения администраторов: %w", err)
	}
	if len(admins) == 0 {
		utils.LogWarn("Некому отправить напоминание: непроверенные транзакции в %d филиалах", len(pending))
		return nil
	}

	var errs []error
	for _, admin := range admins {
		if err := s.notifier.SendPendingDigest(admin.Email, pending); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", admin.Email, err))
		}
	}

	err = errors.Join(errs...)
	utils.LogOperation("pending_reminder", start, err)
	return err
}
