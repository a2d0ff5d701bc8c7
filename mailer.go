package users

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Encryption selects the SMTP transport security mode.
type Encryption string

const (
	// EncryptionTLS upgrades a plain connection via STARTTLS.
	EncryptionTLS Encryption = "tls"
	// EncryptionSSL uses implicit TLS from the first byte.
	EncryptionSSL Encryption = "ssl"
	// EncryptionNone sends in the clear.
	EncryptionNone Encryption = "none"
)

// EmailConfig is the sender configuration handed to the email workflows.
type EmailConfig struct {
	From       string
	FromName   string
	UseSMTP    bool
	Host       string
	Port       int
	UseAuth    bool
	Username   string
	Password   string
	Encryption Encryption
	Charset    string
}

// Validate ensures the config can address an outgoing message.
func (c EmailConfig) Validate() error {
	if strings.TrimSpace(c.From) == "" {
		return ErrNoSenderAddress
	}
	return nil
}

func (c EmailConfig) charset() string {
	if c.Charset == "" {
		return "utf8"
	}
	return c.Charset
}

func (c EmailConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = 587
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Message is one outgoing email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTMLBody string
}

// Mailer is the outbound mail capability the workflows depend on.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// RenderTemplate substitutes the %token% and %uid% placeholders into an
// email template.
func RenderTemplate(template, rawToken string, userID int64) string {
	body := strings.ReplaceAll(template, "%token%", rawToken)
	return strings.ReplaceAll(body, "%uid%", strconv.FormatInt(userID, 10))
}

// SMTPMailer delivers messages over SMTP per the EmailConfig transport
// settings.
type SMTPMailer struct {
	config EmailConfig
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for the given transport config.
func NewSMTPMailer(config EmailConfig) *SMTPMailer {
	return &SMTPMailer{config: config}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.From) == "" {
		return ErrNoSenderAddress
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", m.config.addr())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to reach mail server").
			WithTextCode(ErrEmailSending.TextCode)
	}

	host := m.config.Host
	if m.config.Encryption == EncryptionSSL {
		conn = tls.Client(conn, &tls.Config{ServerName: host})
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return wrapSendError(err)
	}
	defer client.Close()

	if m.config.Encryption == EncryptionTLS {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return wrapSendError(err)
		}
	}

	if m.config.UseAuth {
		auth := smtp.PlainAuth("", m.config.Username, m.config.Password, host)
		if err := client.Auth(auth); err != nil {
			return wrapSendError(err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return wrapSendError(err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return wrapSendError(err)
	}

	w, err := client.Data()
	if err != nil {
		return wrapSendError(err)
	}
	if _, err := w.Write(m.payload(msg)); err != nil {
		w.Close()
		return wrapSendError(err)
	}
	if err := w.Close(); err != nil {
		return wrapSendError(err)
	}

	return client.Quit()
}

func (m *SMTPMailer) payload(msg Message) []byte {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.FromName), msg.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.NewString(), m.config.Host)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: text/html; charset=%s\r\n", m.config.charset())
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n")

	return []byte(b.String())
}

func wrapSendError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "mail transport error").
		WithTextCode(ErrEmailSending.TextCode)
}

// logMailer writes the outgoing message to the logger instead of sending it.
// Useful in development and as a stand-in when no transport is configured.
type logMailer struct {
	logger Logger
}

// NewLogMailer creates a Mailer that only logs.
func NewLogMailer(logger Logger) Mailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &logMailer{logger: logger}
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("outgoing email to=%s subject=%q", msg.To, msg.Subject)
	m.logger.Debug("email body: %s", msg.HTMLBody)
	return nil
}
