package invoice

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/poskit/billingd/config"
	"github.com/poskit/billingd/internal/billing"
	"github.com/poskit/billingd/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends a finalized invoice to the customer's email address when
// SMTP delivery is configured.
type Mailer struct {
	cfg config.SmtpConfig
}

func NewMailer(cfg config.SmtpConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether mail delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.Host != ""
}

// Send mails the invoice artifact as an attachment.
func (m *Mailer) Send(to string, snap domain.BillSnapshot, artifact *billing.Artifact) error {
	if !m.Enabled() {
		return errors.New("invoice: smtp delivery is not configured")
	}
	if to == "" {
		return errors.New("invoice: customer has no email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Invoice %s", snap.InvoiceNo))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nPlease find invoice %s attached.\n\nThank you for your business!\n",
		snap.CustomerName, snap.InvoiceNo))
	msg.Attach(artifact.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(artifact.Content)
		return err
	}))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "invoice: send mail")
	}
	zap.L().Info("invoice mailed", zap.String("invoice_no", snap.InvoiceNo), zap.String("to", to))
	return nil
}
