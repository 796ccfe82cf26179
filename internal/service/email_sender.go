package service

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/sirupsen/logrus"
)

type EmailSender struct {
	dialer  *mail.Dialer
	logger  *logrus.Logger
	enabled bool
}

func NewEmailSender(logger *logrus.Logger) *EmailSender {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	enabledStr := os.Getenv("EMAIL_SENDER_ENABLED")
	isInsecureSkipVerifyStr := os.Getenv("INSECURE_SKIP_VERIFY")
	// Преобразуем smtpPort в int
	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		logger.Fatalf("Ошибка преобразования SMTP_PORT: %v", err)
	}
	enabled := enabledStr == "true"
	isInsecureSkipVerify := isInsecureSkipVerifyStr == "true"
	d := mail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	d.TLSConfig = &tls.Config{
		ServerName:         smtpHost,
		InsecureSkipVerify: isInsecureSkipVerify,
	}
	return &EmailSender{
		dialer:  d,
		logger:  logger,
		enabled: enabled,
	}
}

// SendPaymentReceipt отправляет клиенту квитанцию о принятом платеже
func (es *EmailSender) SendPaymentReceipt(email string, amount int64, ticketNumber string, paidOff bool) error {
	if !es.enabled {
		es.logger.Warn("Отправка уведомлений отключена")
		return nil
	}

	subject := fmt.Sprintf("Квитанция о платеже по билету %s", ticketNumber)
	closing := ""
	if paidOff {
		closing = "<p><strong>Билет полностью погашен, залог готов к выдаче.</strong></p>"
	}
	content := fmt.Sprintf(`
		<h1>Квитанция о платеже</h1>
		<p>Залоговый билет: <strong>%s</strong></p>
		<p>Сумма: <strong>%d USD</strong></p>
		<p>Дата: <strong>%s</strong></p>
		%s
		<small>Это автоматическое уведомление, пожалуйста, не отвечайте на него</small>
	`, ticketNumber, amount, time.Now().Format("02.01.2006 15:04"), closing)

	return es.sendEmail(email, subject, content)
}

// SendExtensionNotification отправляет уведомление о продлении залога
func (es *EmailSender) SendExtensionNotification(email, ticketNumber string, months int, newMaturity time.Time) error {
	if !es.enabled {
		es.logger.Warn("Отправка уведомлений отключена")
		return nil
	}

	subject := fmt.Sprintf("Продление залогового билета %s", ticketNumber)
	content := fmt.Sprintf(`
		<h1>Уведомление о продлении</h1>
		<p>Залоговый билет: <strong>%s</strong></p>
		<p>Срок продления: <strong>%d мес.</strong></p>
		<p>Новая дата погашения: <strong>%s</strong></p>
		<small>Это автоматическое уведомление, пожалуйста, не отвечайте на него</small>
	`, ticketNumber, months, newMaturity.Format("02.01.2006"))

	return es.sendEmail(email, subject, content)
}

// SendOverdueNotice отправляет напоминание о просроченном билете
func (es *EmailSender) SendOverdueNotice(email, ticketNumber string, graceEnd time.Time) error {
	if !es.enabled {
		es.logger.Warn("Отправка уведомлений отключена")
		return nil
	}

	subject := fmt.Sprintf("Просрочка по залоговому билету %s", ticketNumber)
	content := fmt.Sprintf(`
		<h1>Уведомление о просрочке</h1>
		<p>Залоговый билет: <strong>%s</strong></p>
		<p>Льготный период истекает: <strong>%s</strong></p>
		<p>После истечения льготного периода залог переходит в собственность ломбарда.</p>
		<small>Это автоматическое уведомление, пожалуйста, не отвечайте на него</small>
	`, ticketNumber, graceEnd.Format("02.01.2006"))

	return es.sendEmail(email, subject, content)
}

func (es *EmailSender) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_USER"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.logger.WithError(err).Error("Ошибка отправки email")
		return fmt.Errorf("не удалось отправить email: %w", err)
	}

	es.logger.Infof("Email успешно отправлен на %s", to)
	return nil
}
