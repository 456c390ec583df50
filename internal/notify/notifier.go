// Package notify informs the clerk about new drafts. Delivery is
// fire-and-forget: the pipeline never acts on a notification outcome.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/entity"
)

// Notifier is the outbound notification contract.
type Notifier interface {
	DraftCreated(ctx context.Context, draft *entity.Draft) error
}

// LogNotifier is the fallback used when SMTP is not configured: it records
// the event and succeeds.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) DraftCreated(_ context.Context, draft *entity.Draft) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notify.draft_created.logged",
		"draft_id", draft.ID,
		"applicant", draft.Record.ApplicantName,
		"fee_czk", draft.Record.FeeCZK,
	)
	return nil
}

// SMTPNotifier emails the clerk about each new draft.
type SMTPNotifier struct {
	cfg    common.SMTPConfig
	logger *slog.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg common.SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPNotifier{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (n *SMTPNotifier) DraftCreated(_ context.Context, draft *entity.Draft) error {
	rec := draft.Record
	subject := "Nový koncept ZUVP - " + orNA(rec.ApplicantName)
	body := fmt.Sprintf(`Nový koncept žádosti o ZUVP byl vytvořen:

Žadatel: %s
Místo: %s
Účel: %s
Poplatek: %d Kč
VS: %s

Prosím zkontrolujte a schvalte v systému.

ID žádosti: %s
`, orNA(rec.ApplicantName), orNA(rec.Location), orNA(rec.PurposeOfUse),
		rec.FeeCZK, orNA(rec.VariableSymbol), draft.ID)

	msg := strings.Join([]string{
		"From: " + n.cfg.User,
		"To: " + n.cfg.ClerkEmail,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	host := n.cfg.Addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	auth := smtp.PlainAuth("", n.cfg.User, n.cfg.Password, host)
	if err := n.send(n.cfg.Addr, auth, n.cfg.User, []string{n.cfg.ClerkEmail}, []byte(msg)); err != nil {
		n.logger.Error("notify.draft_created.send_failed", "draft_id", draft.ID, "error", err)
		return err
	}
	n.logger.Info("notify.draft_created.sent", "draft_id", draft.ID, "to", n.cfg.ClerkEmail)
	return nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
