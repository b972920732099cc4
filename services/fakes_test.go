package services

import (
	"cashbook/models"
	"cashbook/services/servicestest"
	"errors"
)

var errStoreDown = errors.New("store unavailable")

var (
	adminActor  = Actor{UserID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin}
	mumbaiStaff = Actor{UserID: "staff-1", Email: "staff@example.com", Role: models.RoleStaff, Branch: "Mumbai"}
)

func newMemoryStore() *servicestest.MemoryStore {
	return servicestest.NewMemoryStore()
}

var (
	_ TransactionStore    = (*servicestest.MemoryStore)(nil)
	_ OpeningBalanceStore = (*servicestest.MemoryStore)(nil)
	_ UserStore           = (*servicestest.MemoryStore)(nil)
	_ Notifier            = (*servicestest.RecordingNotifier)(nil)
)
