package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

// Message is one outgoing email. HTMLBody is optional.
type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Channel is a single delivery transport. Implementations must be safe for
// concurrent use and must not retry internally.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// ReceiptEmail is the data rendered into a receipt notification.
type ReceiptEmail struct {
	Recipient     string
	CustomerName  string
	DocumentURL   string
	OrderID       string
	BusinessStore string
}

var (
	receiptText = texttemplate.Must(texttemplate.New("receipt_text").Parse(receiptTextTemplate))
	receiptHTML = template.Must(template.New("receipt_html").Parse(receiptHTMLTemplate))
)

// NewReceiptMessage renders the customer notification for a finalized receipt.
func NewReceiptMessage(data ReceiptEmail) (Message, error) {
	var text, html bytes.Buffer
	if err := receiptText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render email text: %w", err)
	}
	if err := receiptHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render email template: %w", err)
	}

	return Message{
		To:       data.Recipient,
		ToName:   data.CustomerName,
		Subject:  "Your receipt for order " + data.OrderID,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}

const receiptTextTemplate = `Hi {{.CustomerName}},

Thanks for your purchase with {{.BusinessStore}}.

Download Your Receipt here:
{{.DocumentURL}}

Regards,
ReceiptFlow
`

// receiptHTMLTemplate is the HTML template for receipt notification emails
const receiptHTMLTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Your receipt</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="background-color: #1a1a2e; padding: 32px 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 26px; font-weight: 600;">{{.BusinessStore}}</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 36px 30px;">
                            <p style="color: #4a5568; font-size: 16px; line-height: 1.6; margin: 0 0 20px 0;">Hi {{.CustomerName}},</p>
                            <p style="color: #4a5568; font-size: 16px; line-height: 1.6; margin: 0 0 28px 0;">
                                Thanks for your purchase with <strong>{{.BusinessStore}}</strong>. The receipt for order <strong>{{.OrderID}}</strong> is ready.
                            </p>
                            <table role="presentation" style="margin: 0 auto 28px auto;">
                                <tr>
                                    <td style="background-color: #2f855a; border-radius: 8px;">
                                        <a href="{{.DocumentURL}}" style="display: inline-block; padding: 14px 28px; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 600;">
                                            Download Your Receipt
                                        </a>
                                    </td>
                                </tr>
                            </table>
                            <p style="color: #718096; font-size: 14px; line-height: 1.6; margin: 0;">
                                If the button above doesn't work, copy and paste this link into your browser:
                            </p>
                            <p style="font-size: 14px; line-height: 1.6; margin: 10px 0 0 0; word-break: break-all;">
                                <a href="{{.DocumentURL}}" style="color: #2f855a;">{{.DocumentURL}}</a>
                            </p>
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f8fafc; padding: 24px; text-align: center; border-top: 1px solid #e2e8f0;">
                            <p style="color: #a0aec0; font-size: 14px; margin: 0;">Regards, ReceiptFlow</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
