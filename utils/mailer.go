package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Tag     string // report, nurture, sales_notification

	// MessageID is generated when empty. Set it when the body already
	// carries tracking links for the ID.
	MessageID string
}

// Mailer sends email over SMTP.
type Mailer struct {
	FromEmail string
	FromName  string
	sender    func(msgs ...*gomail.Message) error
}

// NewMailer returns a mailer that dials host for every message.
func NewMailer(host string, port int, username, password, fromEmail, fromName string) *Mailer {
	d := gomail.NewDialer(host, port, username, password)
	return &Mailer{FromEmail: fromEmail, FromName: fromName, sender: d.DialAndSend}
}

// NewMailerWithSender returns a mailer that hands messages to s instead of
// dialing an SMTP server.
func NewMailerWithSender(s gomail.Sender, fromEmail, fromName string) *Mailer {
	return &Mailer{
		FromEmail: fromEmail,
		FromName:  fromName,
		sender: func(msgs ...*gomail.Message) error {
			return gomail.Send(s, msgs...)
		},
	}
}

// Send delivers msg and returns its Message-ID. The SMTP exchange is
// abandoned when ctx ends first.
func (m *Mailer) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", fmt.Errorf("email recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := msg.MessageID
	if messageID == "" {
		messageID = NewMessageID(m.FromEmail)
	}
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.FromEmail, m.FromName)
	if msg.ToName != "" {
		gm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetHeader("Message-ID", "<"+messageID+">")
	if msg.Tag != "" {
		gm.SetHeader("X-Email-Tag", msg.Tag)
	}
	gm.SetBody("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() {
		done <- m.sender(gm)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("error sending email: %w", err)
		}
		return messageID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// NewMessageID returns a unique Message-ID in the sender's domain.
func NewMessageID(fromEmail string) string {
	domain := "localhost"
	if i := strings.LastIndex(fromEmail, "@"); i >= 0 && i < len(fromEmail)-1 {
		domain = fromEmail[i+1:]
	}
	return uuid.New().String() + "@" + domain
}

// Embedded email templates
var emailTemplates = map[string]string{
	"assessment_report": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #1a2b4c; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .score { font-size: 40px; font-weight: bold; color: #2563eb; text-align: center; margin: 20px 0; }
        table { width: 100%; border-collapse: collapse; }
        td { padding: 8px; border-bottom: 1px solid #eee; }
        .button { display: inline-block; padding: 12px 24px; background-color: #2563eb; color: white; text-decoration: none; border-radius: 6px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your AI Readiness Report</h2>
    </div>
    <p>Hi {{.Name}},</p>
    <p>Thank you for completing the AI Readiness Assessment. Here is where you stand today.</p>
    <div class="score">{{.OverallScore}}/100</div>
    <p style="text-align: center;">Readiness level: <strong>{{.ReadinessLevel}}</strong></p>
    <table>
        <tr><td>Current state</td><td><strong>{{.CurrentState}}</strong></td></tr>
        <tr><td>Strategy and vision</td><td><strong>{{.StrategyVision}}</strong></td></tr>
        <tr><td>Team capabilities</td><td><strong>{{.TeamCapabilities}}</strong></td></tr>
        <tr><td>Implementation</td><td><strong>{{.Implementation}}</strong></td></tr>
    </table>
    <p>Over the next few weeks we will send you practical ideas tailored to your results.</p>
    {{if .BookingURL}}<p style="text-align: center;"><a href="{{.BookingURL}}" class="button">Talk through your results</a></p>{{end}}
    <div class="footer">
        <p>© {{.Year}} All rights reserved.</p>
    </div>
</body>
</html>`,

	"sales_notification": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>New {{.Tier}} prospect</h2>
    <table>
        <tr><td>Name</td><td>{{.Name}}</td></tr>
        <tr><td>Email</td><td>{{.Email}}</td></tr>
        <tr><td>Company</td><td>{{.Company}}</td></tr>
        <tr><td>Role</td><td>{{.Role}}</td></tr>
        <tr><td>Category</td><td>{{.Category}}</td></tr>
        <tr><td>Lead score</td><td>{{.LeadScore}}</td></tr>
        <tr><td>Recommended call</td><td>{{.CallType}} ({{.EstimatedValue}}, {{.Priority}} priority)</td></tr>
    </table>
    {{if .DashboardURL}}<p><a href="{{.DashboardURL}}">Open in dashboard</a></p>{{end}}
</body>
</html>`,
}

var parsedTemplates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(emailTemplates))
	for name, body := range emailTemplates {
		out[name] = template.Must(template.New(name).Parse(body))
	}
	return out
}()

// RenderTemplate executes a named embedded template.
func RenderTemplate(name string, data interface{}) (string, error) {
	tmpl, ok := parsedTemplates[name]
	if !ok {
		return "", fmt.Errorf("template '%s' not found", name)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("error executing template: %w", err)
	}
	return body.String(), nil
}

// ReportEmailData feeds the assessment_report template.
type ReportEmailData struct {
	Subject          string
	Name             string
	OverallScore     int
	ReadinessLevel   string
	CurrentState     int
	StrategyVision   int
	TeamCapabilities int
	Implementation   int
	BookingURL       string
	Year             int
}

// SalesNotificationData feeds the sales_notification template.
type SalesNotificationData struct {
	Subject        string
	Name           string
	Email          string
	Company        string
	Role           string
	Category       string
	Tier           string
	LeadScore      int
	CallType       string
	EstimatedValue string
	Priority       string
	DashboardURL   string
}
