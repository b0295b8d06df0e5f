package notify

import (
	"fmt"
	"html"
	"time"
)

func RegistrationMessage(to, username string) Message {
	return Message{
		Kind:    KindRegistration,
		To:      to,
		Subject: "Welcome",
		Body: fmt.Sprintf("<p>Hello %s,</p><p>your account has been created.</p>",
			html.EscapeString(username)),
	}
}

func PasswordResetMessage(to, username, link string, ttl time.Duration) Message {
	return Message{
		Kind:    KindPasswordReset,
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"<p>Hello %s,</p><p>use the link below to choose a new password. It expires in %s.</p>"+
				"<p><a href=\"%s\">Reset password</a></p>"+
				"<p>If you did not ask for a reset, ignore this message.</p>",
			html.EscapeString(username), humanize(ttl), html.EscapeString(link)),
	}
}

func LoginCodeMessage(to, username, code string, ttl time.Duration) Message {
	return Message{
		Kind:    KindLoginCode,
		To:      to,
		Subject: "Your login code",
		Body: fmt.Sprintf("<p>Hello %s,</p><p>your login code is <b>%s</b>. It expires in %s.</p>",
			html.EscapeString(username), html.EscapeString(code), humanize(ttl)),
	}
}

func humanize(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	}
	return d.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
