package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Notifier delivers account notices to newly provisioned users
type Notifier interface {
	SendCredentialNotice(notice CredentialNotice) error
}

// CredentialNotice describes an account created by a roster upload
type CredentialNotice struct {
	ToEmail  string
	ToName   string
	Username string
	// Hint tells the user what their initial password is, never the password itself
	Hint string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	LoginURL  string
}

// Configured reports whether real delivery is possible
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// SMTPNotifier implements Notifier over SMTP, falling back to log lines when
// the server is not configured.
type SMTPNotifier struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(config SMTPConfig, logger zerolog.Logger) Notifier {
	return &SMTPNotifier{
		config: config,
		logger: logger,
	}
}

// SendCredentialNotice tells a user their account exists and how to sign in
func (s *SMTPNotifier) SendCredentialNotice(notice CredentialNotice) error {
	if notice.ToEmail == "" {
		return nil
	}
	if !s.config.Configured() {
		s.logger.Info().
			Str("toEmail", notice.ToEmail).
			Str("username", notice.Username).
			Msg("SMTP not configured - credential notice not sent")
		return nil
	}

	subject := "Your industrial attachment account"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<p>Hello %s,</p>
				<p>An account has been created for you. Sign in with the username <strong>%s</strong>.</p>
				<p>%s</p>
				<p>You will be asked to choose a new password on first sign in.</p>
				%s
			</div>
		</body>
		</html>
	`, notice.ToName, notice.Username, notice.Hint, s.loginLink())

	return s.sendHTMLEmail(notice.ToEmail, subject, body)
}

func (s *SMTPNotifier) loginLink() string {
	if s.config.LoginURL == "" {
		return ""
	}
	return fmt.Sprintf(`<p><a href="%s">%s</a></p>`, s.config.LoginURL, s.config.LoginURL)
}

// buildMessage renders headers in a fixed order so messages are reproducible
func (s *SMTPNotifier) buildMessage(toEmail, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// sendHTMLEmail sends an HTML email
func (s *SMTPNotifier) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	message := s.buildMessage(toEmail, subject, htmlBody)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}
