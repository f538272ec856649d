// Package notify turns verification secrets into human-readable messages and
// delivers them over email or SMS.
package notify

import (
	"fmt"
	"net/url"
	"strings"
)

// Composer renders message bodies.  FrontendURL is the base of the email
// verification link.
type Composer struct {
	FrontendURL string
}

// VerificationLink is where the email token is redeemed by the frontend.
func (c Composer) VerificationLink(token string) string {
	base := strings.TrimRight(c.FrontendURL, "/")
	return base + "/verify-email?token=" + url.QueryEscape(token)
}

// VerificationEmail returns the subject and HTML body of the signup email.
func (c Composer) VerificationEmail(token string) (link, subject, body string) {
	link = c.VerificationLink(token)
	subject = "Verify Your Email"
	body = fmt.Sprintf(`<h1>Email Verification</h1>
<p>Please click the link below to verify your email address:</p>
<a href="%[1]s">%[1]s</a>
<p>This link will expire in 24 hours.</p>
<p>If you didn't create an account, please ignore this email.</p>
`, link)
	return link, subject, body
}

func (Composer) VerificationSMS(code string) string {
	return "Your verification code is: " + code
}

func (Composer) LoginCodeSMS(code string) string {
	return "Your login code is: " + code + ". It expires in 10 minutes."
}
