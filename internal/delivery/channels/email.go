package channels

import (
	"gopkg.in/gomail.v2"
)

// SMTPSender là thông tin kết nối SMTP để gửi email thông báo
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SendEmail gửi một email HTML tới danh sách người nhận
func SendEmail(sender SMTPSender, recipients []string, subject, htmlContent string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", sender.From)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlContent)

	dialer := gomail.NewDialer(sender.Host, sender.Port, sender.Username, sender.Password)
	return dialer.DialAndSend(msg)
}
