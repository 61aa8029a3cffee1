package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/studydesk/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"

	maxSendAttempts = 3
)

type sendgridService struct {
	key      string
	from     *sgmail.Email
	appName  string
	logger   core.Logger
	api      func(rest.Request) (*rest.Response, error)
	retryGap time.Duration // doubled after every failed attempt
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return newSendgridService(conf, logger)
}

func newSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		key:      conf.SendgridAPIKey,
		from:     sgmail.NewEmail(from.Name, from.Address),
		appName:  conf.AppName,
		logger:   logger,
		api:      sendgrid.API,
		retryGap: time.Second,
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email %q: %v", msg.TemplateName, err), err)
			}
			if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
				svc.send(*msg)
			}
		}()
	}
}

func (svc *sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = "[" + svc.appName + "] " + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)

	// SendGrid rejects empty content parts
	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	// categories group the stats of the digests and the password resets
	m.AddCategories(strings.ToLower(svc.appName))
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	for _, at := range msg.Attachments {
		m.AddAttachment(sgAttachment(at))
	}
	return m
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

// sgAttachment shows calendar files inline, so that mail clients offer to add the events.
func sgAttachment(at core.Attachment) *sgmail.Attachment {
	disposition := "attachment"
	if strings.HasPrefix(at.ContentType, "text/calendar") {
		disposition = "inline"
	}
	return &sgmail.Attachment{
		Content:     at.Content.String(),
		Type:        at.ContentType,
		Filename:    at.Filename,
		Disposition: disposition,
	}
}

// retryable reports whether SendGrid may accept the same request later.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func (svc *sendgridService) send(msg core.EmailMessage) {
	body := sgmail.GetRequestBody(svc.prepare(msg))
	gap := svc.retryGap

	for attempt := 1; ; attempt++ {
		req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
		req.Method = http.MethodPost
		req.Body = body

		res, err := svc.api(req)
		switch {
		case err != nil:
			svc.logger.Error(fmt.Sprintf("sending email %q (attempt %d): %v", msg.Subject, attempt, err), err)
		case res.StatusCode < http.StatusBadRequest:
			return
		case !retryable(res.StatusCode):
			svc.logger.Error(fmt.Sprintf("sending email %q - status: %d - Body: %s", msg.Subject, res.StatusCode, res.Body))
			return
		default:
			svc.logger.Warn(fmt.Sprintf("sending email %q (attempt %d) - status: %d", msg.Subject, attempt, res.StatusCode))
		}

		if attempt == maxSendAttempts {
			svc.logger.Error(fmt.Sprintf("sending email %q: giving up after %d attempts", msg.Subject, attempt))
			return
		}
		time.Sleep(gap)
		gap *= 2
	}
}
