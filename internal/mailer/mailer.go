// Package mailer delivers guardian attendance reports over SMTP.
package mailer

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"campusattend/internal/report"
)

// Mailer sends HTML reports. With skip set (the dev default) Send is a
// logged no-op upstream; callers check Enabled first.
type Mailer struct {
	host string
	port string
	user string
	pass string
	from string
	skip bool
}

// New builds a mailer from SMTP settings.
func New(host, port, user, pass, from string, skip bool) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from, skip: skip}
}

// Enabled reports whether delivery is configured.
func (m *Mailer) Enabled() bool {
	return !m.skip && m.host != ""
}

// SendGuardianReport mails one student's per-subject attendance table.
func (m *Mailer) SendGuardianReport(to string, student report.BatchStudent, stats []report.SubjectStats) error {
	if !m.Enabled() {
		return errors.New("mailer not configured")
	}
	if to == "" {
		return errors.New("recipient address required")
	}

	subject := fmt.Sprintf("Attendance Report for %s", student.Name)
	msg := buildMessage(m.from, to, subject, RenderReport(student, stats))

	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// RenderReport builds the HTML body of a guardian report.
func RenderReport(student report.BatchStudent, stats []report.SubjectStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Attendance Report for %s</h2>", student.Name)
	if student.Enrollment != nil {
		fmt.Fprintf(&b, "<p>Enrollment: %s</p>", *student.Enrollment)
	}
	b.WriteString("<h3>Subject-wise Attendance</h3>")
	b.WriteString(`<table border="1" cellpadding="5">`)
	b.WriteString("<tr><th>Subject</th><th>Present</th><th>Total</th><th>Percentage</th></tr>")
	for _, st := range stats {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d%%</td></tr>",
			st.SubjectName, st.Present, st.Total, st.Percentage)
	}
	b.WriteString("</table>")
	return b.String()
}
