package email

import (
	"fmt"
	"net/url"
)

// Mailer arma y envía los correos transaccionales del servicio sobre un
// Sender. BaseURL apunta al frontend que resuelve los links.
type Mailer struct {
	Sender  Sender
	BaseURL string
}

func NewMailer(sender Sender, baseURL string) *Mailer {
	return &Mailer{Sender: sender, BaseURL: baseURL}
}

func (m *Mailer) link(path, tokenParam, token string) string {
	return fmt.Sprintf("%s%s?%s=%s", m.BaseURL, path, tokenParam, url.QueryEscape(token))
}

// SendVerification envía el correo de verificación de cuenta con el link
// que carga el token en plaintext. El token no se loguea nunca.
func (m *Mailer) SendVerification(to, fullName, hospitalName, token string) error {
	link := m.link("/verify-email", "token", token)

	subject := fmt.Sprintf("Verify your %s account", hospitalName)
	text := fmt.Sprintf(
		"Hello %s,\n\nYour account at %s was created. Verify your email address within 24 hours:\n\n%s\n\nIf you did not create this account, ignore this message.\n",
		fullName, hospitalName, link)
	html := fmt.Sprintf(
		`<p>Hello %s,</p><p>Your account at <b>%s</b> was created. Verify your email address within 24 hours:</p><p><a href="%s">Verify email</a></p><p>If you did not create this account, ignore this message.</p>`,
		fullName, hospitalName, link)

	return m.Sender.Send(to, subject, html, text)
}

// SendPasswordReset envía el correo de recuperación de contraseña.
func (m *Mailer) SendPasswordReset(to, fullName, token string) error {
	link := m.link("/reset-password", "token", token)

	subject := "Password reset request"
	text := fmt.Sprintf(
		"Hello %s,\n\nA password reset was requested for this account. The link is valid for 24 hours and can be used once:\n\n%s\n\nIf you did not request this, your password remains unchanged.\n",
		fullName, link)
	html := fmt.Sprintf(
		`<p>Hello %s,</p><p>A password reset was requested for this account. The link is valid for 24 hours and can be used once:</p><p><a href="%s">Reset password</a></p><p>If you did not request this, your password remains unchanged.</p>`,
		fullName, link)

	return m.Sender.Send(to, subject, html, text)
}
