package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/admissions/core"
)

func Test_sendgridService_build(t *testing.T) {
	conf := &core.Config{
		AppName:          "Admissions",
		SendgridApiKey:   "key",
		DefaultFromEmail: mail.Address{Name: "Admissions", Address: "noreply@example.com"},
	}
	msg := core.EmailMessage{
		To:           []mail.Address{{Name: "Ada Lovelace", Address: "ada@example.com"}},
		Cc:           []mail.Address{{Address: "office@example.com"}},
		Subject:      "Exam scheduled",
		TemplateName: "exam_assigned",
		TextContent:  "Mathematics, room 101",
		HTMLContent:  "<p>Mathematics, room 101</p>",
	}

	t.Run("live", func(t *testing.T) {
		svc := NewSendgridService(conf, nil).(*sendgridService)
		m := svc.build(msg)

		assert.Equal(t, "noreply@example.com", m.From.Address)
		require.Len(t, m.Personalizations, 1)
		p := m.Personalizations[0]
		assert.Equal(t, "[Admissions] Exam scheduled", p.Subject)
		require.Len(t, p.To, 1)
		assert.Equal(t, "ada@example.com", p.To[0].Address)
		require.Len(t, p.CC, 1)
		assert.Equal(t, "office@example.com", p.CC[0].Address)

		require.Len(t, m.Content, 2)
		assert.Equal(t, "text/plain", m.Content[0].Type)
		assert.Equal(t, "text/html", m.Content[1].Type)
		assert.Equal(t, []string{"admissions", "exam_assigned"}, m.Categories)
		assert.Nil(t, m.MailSettings)
	})

	t.Run("test mode uses the sandbox", func(t *testing.T) {
		testConf := *conf
		testConf.TestMode = true
		svc := NewSendgridService(&testConf, nil).(*sendgridService)

		noHTML := msg
		noHTML.HTMLContent = ""
		m := svc.build(noHTML)

		require.Len(t, m.Content, 1)
		require.NotNil(t, m.MailSettings)
		require.NotNil(t, m.MailSettings.SandboxMode)
		assert.True(t, *m.MailSettings.SandboxMode.Enable)
	})
}
