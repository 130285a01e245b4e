package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers mail over SMTP. Pointed at Mailpit in development.
type Mailer struct {
	addr string
	from string
}

// New builds a Mailer for the given SMTP endpoint.
func New(host string, port int, from string) *Mailer {
	return &Mailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
}

// Send delivers one message. The context is honored between the dial
// and the write by a preliminary check; smtp.SendMail itself does not
// take a context.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("mailer: empty recipient")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return smtp.SendMail(m.addr, nil, m.from, []string{msg.To}, []byte(b.String()))
}
