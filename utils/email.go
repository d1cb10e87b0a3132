package utils

import (
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Mailer delivers HTML mail.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, pass string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   user,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}

// LogMailer is used when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("mail delivery disabled, skipping")
	return nil
}

const mailDateLayout = "02/01/2006 15:04"

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "received"}}<p>Olá {{.Name}},</p><p>Recebemos seu pedido de <b>{{.Service}}</b> para <b>{{.When}}</b>. Você receberá uma confirmação assim que ele for aprovado.</p>{{end}}
{{define "confirmed"}}<p>Olá {{.Name}},</p><p>Seu agendamento de <b>{{.Service}}</b> está confirmado para <b>{{.When}}</b>.</p>{{end}}
{{define "reminder"}}<p>Olá {{.Name}},</p><p>Lembrete do seu atendimento de <b>{{.Service}}</b> em <b>{{.When}}</b>.</p>{{end}}
`))

type mailData struct {
	Name    string
	Service string
	When    string
}

// renderMail executes a named template; user supplied fields are HTML escaped.
func renderMail(name, user, service string, start time.Time) string {
	var buf strings.Builder
	data := mailData{Name: user, Service: service, When: start.Format(mailDateLayout)}
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("failed to render mail")
		return ""
	}
	return buf.String()
}

func BookingReceivedEmail(name, service string, start time.Time) (string, string) {
	return "Recebemos seu agendamento", renderMail("received", name, service, start)
}

func BookingConfirmedEmail(name, service string, start time.Time) (string, string) {
	return "Agendamento confirmado", renderMail("confirmed", name, service, start)
}

func ReminderEmail(name, service string, start time.Time) (string, string) {
	return "Lembrete: seu atendimento está chegando", renderMail("reminder", name, service, start)
}
