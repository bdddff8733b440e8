// Package mail renders transactional emails and picks the configured sender.
package mail

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"
)

// Message is a rendered email with HTML and plain-text alternatives.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const otpSubject = "Your OTP for Email Verification"

var otpHTML = htmltemplate.Must(htmltemplate.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 480px; margin: 0 auto; padding: 24px;">
    <h2>Email Verification</h2>
    <p>Use the code below to verify your email address:</p>
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
    <p>This code is valid for {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
  </div>
</body>
</html>`))

var otpText = template.Must(template.New("otp").Parse(
	"Your verification code is {{.Code}}. It is valid for {{.Minutes}} minutes.\n"))

// OTPMessage renders the passcode email for to.
func OTPMessage(to, code string, validity time.Duration) (Message, error) {
	data := struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(validity / time.Minute)}

	var html, text bytes.Buffer
	if err := otpHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render otp html: %w", err)
	}
	if err := otpText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render otp text: %w", err)
	}
	return Message{To: to, Subject: otpSubject, HTML: html.String(), Text: text.String()}, nil
}
