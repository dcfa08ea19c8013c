// Package notify sends the back-office email that follows an order request.
package notify

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/aymerick/raymond"
	"github.com/mailgun/mailgun-go/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFiles embed.FS

// sendTimeout bounds a single provider call.
const sendTimeout = 10 * time.Second

// Message is a rendered email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a rendered email through one provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// OrderEmail is the customer and product data of an order request.
type OrderEmail struct {
	CustomerName      string `json:"customer_name" handlebars:"customer_name"`
	Email             string `json:"email" handlebars:"email"`
	Phone             string `json:"phone" handlebars:"phone"`
	Address           string `json:"address" handlebars:"address"`
	ProductName       string `json:"product_name" handlebars:"product_name"`
	ProductCode       string `json:"product_code" handlebars:"product_code"`
	WoodType          string `json:"wood_type" handlebars:"wood_type"`
	CushionType       string `json:"cushion_type" handlebars:"cushion_type"`
	CustomizationNote string `json:"customization_note" handlebars:"customization_note"`
}

// Notifier is what the order flow depends on.
type Notifier interface {
	NotifyOrder(ctx context.Context, order OrderEmail) error
}

// Mailer renders templates and hands them to a Sender addressed to the admin.
type Mailer struct {
	sender    Sender
	recipient string
	log       *zap.Logger
	templates map[string]*raymond.Template
}

// NewMailer parses the embedded templates.
func NewMailer(sender Sender, adminRecipient string, log *zap.Logger) (*Mailer, error) {
	m := &Mailer{
		sender:    sender,
		recipient: adminRecipient,
		log:       log,
		templates: map[string]*raymond.Template{},
	}

	names, err := fs.Glob(templateFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "list email templates")
	}
	for _, name := range names {
		data, err := templateFiles.ReadFile(name)
		if err != nil {
			return nil, errors.Wrapf(err, "read email template %s", name)
		}
		tpl, err := raymond.Parse(string(data))
		if err != nil {
			return nil, errors.Wrapf(err, "parse email template %s", name)
		}
		m.templates[strings.TrimSuffix(path.Base(name), ".html")] = tpl
	}
	return m, nil
}

// Render executes a named template.
func (m *Mailer) Render(template string, content interface{}) (string, error) {
	tpl, ok := m.templates[template]
	if !ok {
		return "", errors.Errorf("unknown email template %q", template)
	}
	body, err := tpl.Exec(content)
	if err != nil {
		return "", errors.Wrapf(err, "render email template %s", template)
	}
	return body, nil
}

// NotifyOrder emails the admin about an order request.
func (m *Mailer) NotifyOrder(ctx context.Context, order OrderEmail) error {
	if m.recipient == "" {
		return errors.New("no admin recipient configured")
	}
	body, err := m.Render("order_request", order)
	if err != nil {
		return err
	}

	subject := "New order request"
	if order.ProductName != "" {
		subject += ": " + order.ProductName
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := m.sender.Send(ctx, Message{To: []string{m.recipient}, Subject: subject, HTML: body}); err != nil {
		return errors.Wrap(err, "send order email")
	}
	m.log.Info("order email sent", zap.String("customer", order.CustomerName), zap.String("product_code", order.ProductCode))
	return nil
}

// MailgunSender sends through the Mailgun API.
type MailgunSender struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgunSender(domain, apiKey, from string) *MailgunSender {
	return &MailgunSender{mg: mailgun.NewMailgun(domain, apiKey), from: from}
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	message := s.mg.NewMessage(s.from, msg.Subject, "", msg.To...)
	message.SetHtml(msg.HTML)
	if _, _, err := s.mg.Send(ctx, message); err != nil {
		return errors.Wrap(err, "mailgun send")
	}
	return nil
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, password), from: from}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "smtp send")
		}
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "smtp send")
	}
}

// LogSender only logs; used when no provider is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email not sent, log provider",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
