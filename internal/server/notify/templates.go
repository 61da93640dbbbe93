package notify

import (
	"fmt"
	"html"
)

type message struct {
	subject string
	text    string
	html    string
}

func verificationMessage(code string) message {
	return message{
		subject: "Verify your email",
		text:    fmt.Sprintf("Your verification code is: %s\nThe code expires in 24 hours.", code),
		html: fmt.Sprintf(`<p>Thank you for signing up.</p><p>Your verification code is:</p>`+
			`<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>`+
			`<p>The code expires in 24 hours.</p>`, html.EscapeString(code)),
	}
}

func passwordResetMessage(resetURL string) message {
	return message{
		subject: "Reset your password",
		text: fmt.Sprintf("We received a request to reset your password.\nOpen this link to choose a new one: %s\n"+
			"The link expires in 1 hour. If you did not ask for this, ignore this email.", resetURL),
		html: fmt.Sprintf(`<p>We received a request to reset your password.</p>`+
			`<p><a href="%s">Reset password</a></p>`+
			`<p>The link expires in 1 hour. If you did not ask for this, ignore this email.</p>`, html.EscapeString(resetURL)),
	}
}

func resetSuccessMessage() message {
	return message{
		subject: "Your password was reset",
		text:    "Your password has been changed. If this was not you, contact the clinic immediately.",
		html:    `<p>Your password has been changed.</p><p>If this was not you, contact the clinic immediately.</p>`,
	}
}
