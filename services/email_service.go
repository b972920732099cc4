package services

import (
	"cashbook/config"
	"cashbook/models"
	"cashbook/utils"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer отправляет подготовленные письма. Реализуется *gomail.Dialer.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier описывает уведомления, которые отправляют сервисы
type Notifier interface {
	SendVerificationResult(to string, transaction models.CashTransaction) error
	SendPendingDigest(to string, pending map[string]int64) error
}

// EmailService предоставляет методы для отправки email
type EmailService struct {
	mailer  Mailer
	from    string
	enabled bool
	breaker *gobreaker.CircuitBreaker
	metrics *utils.Metrics
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config, metrics *utils.Metrics) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)
	return newEmailService(dialer, cfg.SMTP.From, cfg.SMTP.Enabled, metrics)
}

func newEmailService(mailer Mailer, from string, enabled bool, metrics *utils.Metrics) *EmailService {
	settings := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			utils.Logger().Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &EmailService{
		mailer:  mailer,
		from:    from,
		enabled: enabled,
		breaker: gobreaker.NewCircuitBreaker(settings),
		metrics: metrics,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.enabled {
		utils.LogDebug("SMTP отключен, письмо для %s не отправлено: %s", to, subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.mailer.DialAndSend(m)
	})
	if s.metrics != nil {
		s.metrics.RecordEmail(err)
	}
	if err != nil {
		return fmt.Errorf("ошибка отправки email: %w", err)
	}

	return nil
}

// SendVerificationResult сообщает сотруднику о результате проверки транзакции
func (s *EmailService) SendVerificationResult(to string, t models.CashTransaction) error {
	subject := fmt.Sprintf("Voucher %s %s", t.VoucherNo, t.VerificationStatus)

	var reason string
	if t.RejectionReason != nil {
		reason = fmt.Sprintf("<p>Reason: %s</p>", html.EscapeString(*t.RejectionReason))
	}

	body := fmt.Sprintf(`
		<h2>Cash transaction %s</h2>
		<p>Branch: %s</p>
		<p>Voucher: %s</p>
		<p>Date: %s</p>
		<p>Cash in: %s</p>
		<p>Cash out: %s</p>
		%s
	`,
		t.VerificationStatus,
		html.EscapeString(t.Branch),
		html.EscapeString(t.VoucherNo),
		t.TransactionDate.Format("02.01.2006"),
		utils.FormatINR(t.CashIn),
		utils.FormatINR(t.CashOut),
		reason,
	)

	return s.SendEmail(to, subject, body)
}

// SendPendingDigest отправляет администратору сводку непроверенных транзакций по филиалам
func (s *EmailService) SendPendingDigest(to string, pending map[string]int64) error {
	branches := make([]string, 0, len(pending))
	var total int64
	for branch, count := range pending {
		branches = append(branches, branch)
		total += count
	}
	sort.Strings(branches)

	var rows strings.Builder
	for _, branch := range branches {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td></tr>", html.EscapeString(branch), pending[branch])
	}

	subject := fmt.Sprintf("%d transactions awaiting verification", total)
	body := fmt.Sprintf(`
		<h2>Pending verification</h2>
		<table>
			<tr><th>Branch</th><th>Pending</th></tr>
			%s
		</table>
		<p>Generated: %s</p>
	`, rows.String(), time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}
