package services

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/BradenHooton/cis-membership/pkg/logger"
)

const (
	subjectVerification = "Email Verification"
	subjectResetOTP     = "Password Reset OTP"
	subjectMembership   = "Membership Confirmation - Cyber Intelligent System"
	subjectNewsletter   = "Welcome to Cyber Intelligent System Newsletter"
)

// Notifier queues outbound notifications. Implementations must not block the
// caller on delivery.
type Notifier interface {
	SendVerification(ctx context.Context, email, token string)
	SendResetOTP(ctx context.Context, email, otp string, expiresAt time.Time)
	SendMembershipConfirmation(ctx context.Context, m *models.Membership)
	SendNewsletterWelcome(ctx context.Context, s *models.NewsletterSubscription)
}

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func newEmailTemplate(name, html, text string) emailTemplate {
	return emailTemplate{
		html: htmltemplate.Must(htmltemplate.New(name).Parse(html)),
		text: texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

var (
	verificationTemplate = newEmailTemplate("verification",
		`<p>Please verify your email address for Cyber Intelligent System.</p>
<p><a href="{{.Link}}">Verify Email Address</a></p>
<p>Or copy this link into your browser:<br><code>{{.Link}}</code></p>`,
		`Please verify your email address for Cyber Intelligent System:

{{.Link}}
`)

	resetOTPTemplate = newEmailTemplate("reset_otp",
		`<p>Your password reset code is <strong>{{.OTP}}</strong>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not request a reset you can ignore this email.</p>`,
		`Your password reset code is {{.OTP}}.

It expires in {{.Minutes}} minutes. If you did not request a reset you can ignore this email.
`)

	membershipTemplate = newEmailTemplate("membership",
		`<h2>Welcome to Cyber Intelligent System, {{.FirstName}} {{.LastName}}!</h2>
<p>Your membership has been confirmed.</p>
<ul>
<li>Membership ID: <strong>{{.MembershipID}}</strong></li>
<li>Issue date: {{.IssueDate}}</li>
<li>Expiry date: {{.ExpiryDate}}</li>
</ul>
<p><a href="{{.CardLink}}">View your digital ID card</a></p>`,
		`Welcome to Cyber Intelligent System, {{.FirstName}} {{.LastName}}!

Your membership has been confirmed.

Membership ID: {{.MembershipID}}
Issue date: {{.IssueDate}}
Expiry date: {{.ExpiryDate}}

View your digital ID card: {{.CardLink}}
`)

	newsletterTemplate = newEmailTemplate("newsletter",
		`<p>Hi {{.FirstName}},</p>
<p>Thanks for subscribing to the Cyber Intelligent System newsletter. You will receive it {{.Frequency}}.</p>
{{if .Interests}}<p>Topics: {{.Interests}}</p>{{end}}`,
		`Hi {{.FirstName}},

Thanks for subscribing to the Cyber Intelligent System newsletter. You will receive it {{.Frequency}}.
{{if .Interests}}
Topics: {{.Interests}}
{{end}}`)
)

func (t emailTemplate) render(to, subject string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render html body: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render text body: %w", err)
	}
	return Message{To: to, Subject: subject, HTMLBody: html.String(), TextBody: text.String()}, nil
}

// VerificationLink is the frontend URL carried by the verification email.
func VerificationLink(frontendURL, token string) string {
	return frontendURL + "/verify-email?token=" + url.QueryEscape(token)
}

// CardLink is the frontend URL of a member's digital ID card.
func CardLink(frontendURL, membershipID string) string {
	return frontendURL + "/id-card/" + url.PathEscape(membershipID)
}

// NotificationDispatcher renders notifications and delivers them in the
// background. Failures are logged and never reach the request that caused
// them. Wait drains in-flight sends at shutdown.
type NotificationDispatcher struct {
	mailer      Mailer
	frontendURL string
	timeout     time.Duration
	logger      *slog.Logger
	now         func() time.Time
	wg          sync.WaitGroup
}

func NewNotificationDispatcher(mailer Mailer, frontendURL string, timeout time.Duration, logger *slog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		timeout:     timeout,
		logger:      logger,
		now:         time.Now,
	}
}

func (d *NotificationDispatcher) SendVerification(ctx context.Context, email, token string) {
	d.dispatch(ctx, "verification", email, subjectVerification, verificationTemplate, struct {
		Link string
	}{Link: VerificationLink(d.frontendURL, token)})
}

func (d *NotificationDispatcher) SendResetOTP(ctx context.Context, email, otp string, expiresAt time.Time) {
	minutes := int(expiresAt.Sub(d.now()).Round(time.Minute) / time.Minute)
	d.dispatch(ctx, "reset_otp", email, subjectResetOTP, resetOTPTemplate, struct {
		OTP     string
		Minutes int
	}{OTP: otp, Minutes: minutes})
}

func (d *NotificationDispatcher) SendMembershipConfirmation(ctx context.Context, m *models.Membership) {
	d.dispatch(ctx, "membership", m.Email, subjectMembership, membershipTemplate, struct {
		FirstName, LastName, MembershipID string
		IssueDate, ExpiryDate, CardLink   string
	}{
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		MembershipID: m.MembershipID,
		IssueDate:    FormatCardDate(m.IssueDate),
		ExpiryDate:   FormatCardDate(m.ExpiryDate),
		CardLink:     CardLink(d.frontendURL, m.MembershipID),
	})
}

func (d *NotificationDispatcher) SendNewsletterWelcome(ctx context.Context, s *models.NewsletterSubscription) {
	d.dispatch(ctx, "newsletter", s.Email, subjectNewsletter, newsletterTemplate, struct {
		FirstName, Frequency, Interests string
	}{
		FirstName: s.FirstName,
		Frequency: s.Frequency,
		Interests: strings.Join(s.Interests, ", "),
	})
}

func (d *NotificationDispatcher) dispatch(ctx context.Context, kind, to, subject string, tmpl emailTemplate, data any) {
	msg, err := tmpl.render(to, subject, data)
	if err != nil {
		d.logger.Error("failed to render notification",
			slog.String("kind", kind),
			slog.Any("error", err))
		return
	}

	// Detach from the request so the send survives the response.
	sendCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(sendCtx, d.timeout)
		defer cancel()

		if err := d.mailer.Send(sendCtx, msg); err != nil {
			d.logger.Error("failed to send notification",
				slog.String("kind", kind),
				slog.String("email", logger.SanitizedEmail(to)),
				slog.Any("error", err))
		}
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *NotificationDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
