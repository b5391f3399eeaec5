package smtp

import (
	"context"
	smtpPkg "net/smtp"
	"testing"

	"heimdall/pkg/alert"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresSenderAndRecipients(t *testing.T) {
	t.Setenv("SMTP_MAIL", "")
	t.Setenv("ALERT_EMAIL_TO", "safety@site.io")
	assert.Nil(t, New())

	t.Setenv("SMTP_MAIL", "heimdall@site.io")
	t.Setenv("ALERT_EMAIL_TO", " , ")
	assert.Nil(t, New())
}

func TestNotifySendsMail(t *testing.T) {
	t.Setenv("SMTP_MAIL", "heimdall@site.io")
	t.Setenv("ALERT_EMAIL_TO", "safety@site.io, foreman@site.io")
	t.Setenv("SMTP_HOST", "mail.site.io")
	t.Setenv("SMTP_PORT", "2525")

	n := New()
	require.NotNil(t, n)

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	n.(*smtp).sendMail = func(addr string, _ smtpPkg.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := n.Notify(context.Background(), alert.Violation{ZoneID: "zone-b", Details: []string{"Person ID 4: No Helmet"}})
	require.NoError(t, err)

	assert.Equal(t, "mail.site.io:2525", gotAddr)
	assert.Equal(t, []string{"safety@site.io", "foreman@site.io"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Heimdall: safety violation in zone-b\r\n")
	assert.Contains(t, string(gotMsg), "- Person ID 4: No Helmet\r\n")
}
