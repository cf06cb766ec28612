package mailbox_test

import "strings"

// rfc822 joins header and body lines with CRLF.
func rfc822(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func multipartNewsletter() []byte {
	return rfc822(
		"From: \"Go Weekly\" <Editor@GoWeekly.example>",
		"To: reader@example.com",
		"Subject: =?UTF-8?Q?Issue_42_=C3=A9dition?=",
		"Date: Mon, 02 Mar 2026 09:30:00 +0000",
		"Message-ID: <issue-42@goweekly.example>",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=\"b1\"",
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Plain version",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"<p><a href=3D\"https://go.dev/blog\">Blog</a></p>",
		"--b1--",
		"",
	)
}
