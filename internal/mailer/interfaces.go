package mailer

type Service interface {
	SendProfileUpdateCode(toEmail, toName, code string) error
}
