package service

import (
	"context"
	"fmt"
	"time"

	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/sigmadocs/ged-api/internal/models"
	appErrors "github.com/sigmadocs/ged-api/pkg/errors"
)

type alertDocumentRepository interface {
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Document, error)
}

type alertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	Exists(ctx context.Context, documentID string, kind models.AlertKind) (bool, error)
	MarkEmailed(ctx context.Context, id string) error
}

type alertUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AlertMailer delivers alert notifications. Implementations must be safe to
// call with a nil receiver check left to the caller.
type AlertMailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends alert mail through go-mail.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer builds a mailer from SMTP settings. Returns nil when no host
// is configured, which disables delivery.
func NewSMTPMailer(host string, port int, user, password, from string) (*SMTPMailer, error) {
	if host == "" {
		return nil, nil
	}
	opts := []mail.Option{mail.WithPort(port)}
	if user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// Send delivers one plain-text message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// AlertsConfig tunes the expiration scan.
type AlertsConfig struct {
	Enabled      bool
	NoticeWindow time.Duration
}

// AlertService scans for documents near or past their expiration date and
// emits one alert per document and kind. Email delivery is best effort.
type AlertService struct {
	documents alertDocumentRepository
	alerts    alertRepository
	users     alertUserRepository
	mailer    AlertMailer
	audit     auditRecorder
	logger    *zap.Logger
	cfg       AlertsConfig
}

// NewAlertService constructs an AlertService.
func NewAlertService(documents alertDocumentRepository, alerts alertRepository, users alertUserRepository, mailer AlertMailer, audit auditRecorder, logger *zap.Logger, cfg AlertsConfig) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NoticeWindow <= 0 {
		cfg.NoticeWindow = 7 * 24 * time.Hour
	}
	return &AlertService{documents: documents, alerts: alerts, users: users, mailer: mailer, audit: audit, logger: logger, cfg: cfg}
}

// Process runs one scan pass. Already-alerted documents are skipped so the
// pass is idempotent across repeated cron invocations.
func (s *AlertService) Process(ctx context.Context) (*models.AlertProcessResult, error) {
	if !s.cfg.Enabled {
		return &models.AlertProcessResult{}, nil
	}

	now := time.Now().UTC()
	result := &models.AlertProcessResult{}

	expiring, err := s.documents.ListExpiringBetween(ctx, now, now.Add(s.cfg.NoticeWindow))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expiring documents")
	}
	expired, err := s.documents.ListExpiringBetween(ctx, now.Add(-s.cfg.NoticeWindow), now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expired documents")
	}

	result.Scanned = len(expiring) + len(expired)

	for _, doc := range expiring {
		s.emit(ctx, doc, models.AlertKindDocumentExpiring, result)
	}
	for _, doc := range expired {
		s.emit(ctx, doc, models.AlertKindDocumentExpired, result)
	}

	if result.Created > 0 {
		s.audit.Record(models.AuditLog{
			Action:     models.AuditActionAlertProcess,
			EntityType: "alert",
			Details:    []byte(fmt.Sprintf(`{"scanned":%d,"created":%d,"emailed":%d}`, result.Scanned, result.Created, result.Emailed)),
		})
	}

	return result, nil
}

func (s *AlertService) emit(ctx context.Context, doc models.Document, kind models.AlertKind, result *models.AlertProcessResult) {
	exists, err := s.alerts.Exists(ctx, doc.ID, kind)
	if err != nil {
		s.logger.Warn("failed to check alert existence", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	if exists {
		return
	}

	message := fmt.Sprintf("Document %q expires on %s", doc.Title, formatExpiration(doc.ExpirationDate))
	if kind == models.AlertKindDocumentExpired {
		message = fmt.Sprintf("Document %q expired on %s", doc.Title, formatExpiration(doc.ExpirationDate))
	}

	alert := &models.Alert{
		Kind:       kind,
		DocumentID: doc.ID,
		UserID:     doc.AuthorID,
		Message:    message,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		s.logger.Warn("failed to create alert", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	result.Created++

	if s.mailer == nil {
		return
	}

	author, err := s.users.FindByID(ctx, doc.AuthorID)
	if err != nil {
		s.logger.Warn("failed to load alert recipient", zap.String("user_id", doc.AuthorID), zap.Error(err))
		return
	}
	if err := s.mailer.Send(ctx, author.Email, "Document expiration notice", message); err != nil {
		s.logger.Warn("failed to send alert email", zap.String("document_id", doc.ID), zap.Error(err))
		return
	}
	if err := s.alerts.MarkEmailed(ctx, alert.ID); err != nil {
		s.logger.Warn("failed to mark alert emailed", zap.String("alert_id", alert.ID), zap.Error(err))
		return
	}
	result.Emailed++
}

func formatExpiration(t *time.Time) string {
	if t == nil {
		return "an unknown date"
	}
	return t.UTC().Format("2006-01-02")
}
