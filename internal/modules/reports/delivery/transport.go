package delivery

import (
	"context"

	"github.com/yungbote/claimpacket-backend/internal/platform/sendgrid"
)

type Message struct {
	To          string
	CC          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
	// Tags are echoed back by the provider in webhooks.
	Tags map[string]string
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MailTransport sends one message and returns the provider's message id.
type MailTransport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type SendGridTransport struct {
	client   sendgrid.Client
	fromName string
}

func NewSendGridTransport(client sendgrid.Client, fromName string) *SendGridTransport {
	return &SendGridTransport{client: client, fromName: fromName}
}

func (t *SendGridTransport) Send(ctx context.Context, msg Message) (string, error) {
	req := sendgrid.SendEmailRequest{
		From:       sendgrid.EmailAddress{Name: t.fromName},
		To:         []sendgrid.EmailAddress{{Email: msg.To}},
		Subject:    msg.Subject,
		Text:       msg.Text,
		HTML:       msg.HTML,
		Categories: []string{"claim-packet"},
		CustomArgs: msg.Tags,
	}
	for _, cc := range msg.CC {
		req.CC = append(req.CC, sendgrid.EmailAddress{Email: cc})
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, sendgrid.Attachment{
			Filename:    a.Filename,
			MIMEType:    a.ContentType,
			Content:     a.Content,
			Disposition: "attachment",
		})
	}
	res, err := t.client.Send(ctx, req)
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}
