package notify

import "net/smtp"

func (n *SMTPNotifier) SetSendMail(fn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) {
	n.sendMail = fn
}
