package mail

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Service interface {
	SendMagicLink(email, url string) error
}

type service struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func New() Service {
	return &service{
		client: sendgrid.NewSendClient(os.Getenv("SENDGRID_KEY")),
		from:   sgmail.NewEmail(os.Getenv("MAIL_FROM_NAME"), os.Getenv("MAIL_FROM")),
	}
}

func (s *service) SendMagicLink(email, url string) error {
	text := "Sign in with this link: " + url + "\nIt is valid for 15 minutes and can be used once."
	html := fmt.Sprintf(
		`<p>Sign in with <a href="%s">this link</a>. It is valid for 15 minutes and can be used once.</p>`,
		url,
	)

	message := sgmail.NewSingleEmail(s.from, "Your sign in link", sgmail.NewEmail("", email), text, html)
	res, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		log.Println("mail provider responded with status", res.StatusCode)
		return fmt.Errorf("the mail provider rejected the message")
	}

	return nil
}
