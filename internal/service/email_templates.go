package service

import "fmt"

func magicLinkEmailTemplate(magicURL, appName string) (string, string) {
	subject := fmt.Sprintf("Sign in to your %s partner account", appName)
	body := fmt.Sprintf(`Click this link to sign in to your partner account:
%s

This link expires in 15 minutes and can only be used once.

If you didn't request this, ignore this email.

Best,
The %s Team`, magicURL, appName)

	return subject, body
}
