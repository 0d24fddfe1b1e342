package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const welcomeSubject = "Welcome to the atelier"

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!doctype html>
<html>
  <body style="font-family: Georgia, serif; color: #2b2b2b;">
    <h1>Welcome</h1>
    <p>Thank you for joining our list. You will be the first to hear about new collections and private previews.</p>
    <p>As a thank you, here is {{.Percent}} off your first order:</p>
    <p style="font-size: 22px; letter-spacing: 2px;"><strong>{{.Code}}</strong></p>
    <p>Enter the code at checkout.</p>
  </body>
</html>`))

// WelcomeMessage renders the welcome email with a discount code.
func WelcomeMessage(to, code string) (Message, error) {
	var buf bytes.Buffer
	data := struct {
		Code    string
		Percent string
	}{Code: code, Percent: "10%"}
	if err := welcomeTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render welcome email: %w", err)
	}
	return Message{
		To:      []string{to},
		Subject: welcomeSubject,
		HTML:    buf.String(),
		Text:    fmt.Sprintf("Welcome! Use code %s for 10%% off your first order.", code),
	}, nil
}
