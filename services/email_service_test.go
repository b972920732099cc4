package services

import (
	"bytes"
	"cashbook/models"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeMailer struct {
	mu       sync.Mutex
	messages []*gomail.Message
	err      error
}

func (m *fakeMailer) DialAndSend(msgs ...*gomail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func renderMessage(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestEmailService_Disabled(t *testing.T) {
	mailer := &fakeMailer{}
	s := newEmailService(mailer, "books@example.com", false, nil)

	require.NoError(t, s.SendEmail("staff@example.com", "subject", "body"))
	require.Empty(t, mailer.messages)
}

func TestEmailService_SendVerificationResult(t *testing.T) {
	mailer := &fakeMailer{}
	s := newEmailService(mailer, "books@example.com", true, nil)

	transaction := tx("T1", "Mumbai", "2024-01-05", base, 1234567, 0, models.VerificationStatusRejected)
	transaction.VoucherNo = "V-17"
	transaction.RejectionReason = strPtr("missing bill")

	require.NoError(t, s.SendVerificationResult("staff@example.com", transaction))
	require.Len(t, mailer.messages, 1)

	msg := mailer.messages[0]
	require.Equal(t, []string{"staff@example.com"}, msg.GetHeader("To"))
	require.Equal(t, []string{"Voucher V-17 rejected"}, msg.GetHeader("Subject"))

	raw := renderMessage(t, msg)
	require.Contains(t, raw, "05.01.2024")
	require.Contains(t, raw, "missing bill")
}

func TestEmailService_SendPendingDigest(t *testing.T) {
	mailer := &fakeMailer{}
	s := newEmailService(mailer, "books@example.com", true, nil)

	require.NoError(t, s.SendPendingDigest("admin@example.com", map[string]int64{"Pune": 2, "Mumbai": 3}))
	require.Len(t, mailer.messages, 1)
	require.Equal(t, []string{"5 transactions awaiting verification"}, mailer.messages[0].GetHeader("Subject"))

	raw := renderMessage(t, mailer.messages[0])
	require.Less(t, strings.Index(raw, "Mumbai"), strings.Index(raw, "Pune"))
}

func TestEmailService_BreakerOpens(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("connection refused")}
	s := newEmailService(mailer, "books@example.com", true, nil)

	for i := 0; i < 3; i++ {
		err := s.SendEmail("a@example.com", "s", "b")
		require.ErrorContains(t, err, "connection refused")
	}

	// После трех отказов подряд SMTP больше не вызывается
	mailer.err = nil
	err := s.SendEmail("a@example.com", "s", "b")
	require.Error(t, err)
	require.Empty(t, mailer.messages)
}
