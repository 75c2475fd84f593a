package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/amirasaad/charity/pkg/provider/mail"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[string]emailTemplate{
	ContributionCreated: parse(ContributionCreated,
		`We received your {{.kind}} to {{.org}}`,
		`Dear {{.name}},

Thank you for your {{.kind}} of {{.amount}} {{.currency}}{{if .program}} to {{.program}}{{end}}.
Your reference is {{.id}}. We will email you again once the payment is confirmed.

{{.org}}
`),
	ContributionCreatedAdmin: parse(ContributionCreatedAdmin,
		`New {{.kind}}: {{.amount}} {{.currency}}`,
		`A new {{.kind}} was recorded.

Contributor: {{.name}}
Amount: {{.amount}} {{.currency}}
Program: {{.program}}
Method: {{.method}}
Record: {{.site}}/admin/contributions/{{.id}}
`),
	ContributionCompleted: parse(ContributionCompleted,
		`Receipt for your {{.kind}} to {{.org}}`,
		`Dear {{.name}},

Your payment of {{.amount}} {{.currency}} was confirmed on {{.completedAt}}.
Payment reference: {{.reference}}
Record: {{.id}}

Thank you for your support.
{{.org}}
`),
	ContributionMatched: parse(ContributionMatched,
		`Your sponsorship has been matched`,
		`Dear {{.name}},

Your sponsorship {{.id}} is now linked to {{.beneficiary}}.
We will share updates on their progress.

{{.org}}
`),
	VolunteerApplied: parse(VolunteerApplied,
		`New volunteer application: {{.name}}`,
		`{{.name}} <{{.email}}> applied to volunteer.
Review: {{.site}}/admin/volunteers/{{.id}}
`),
	VolunteerApproved: parse(VolunteerApproved,
		`Welcome aboard, {{.name}}`,
		`Dear {{.name}},

Your volunteer application with {{.org}} was approved.
Sign in at {{.site}}/login to see your sessions.
`),
	PasswordResetRequested: parse(PasswordResetRequested,
		`Reset your {{.org}} password`,
		`Someone asked to reset the password for {{.email}}.
Use this link within {{.expires}}: {{.site}}/reset-password?token={{.token}}

If this was not you, ignore this email.
`),
}

func parse(name, subject, body string) emailTemplate {
	opt := "missingkey=zero"
	return emailTemplate{
		subject: template.Must(template.New(name + ".subject").Option(opt).Parse(subject)),
		body:    template.Must(template.New(name + ".body").Option(opt).Parse(body)),
	}
}

// Render builds the email for msg. Common fields (org, site) come from
// defaults and may be overridden by msg.Data.
func Render(msg *Message, defaults map[string]string) (*mail.Message, error) {
	tpl, ok := templates[msg.Template]
	if !ok {
		return nil, fmt.Errorf("notification: unknown template %q", msg.Template)
	}
	data := make(map[string]string, len(defaults)+len(msg.Data))
	for k, v := range defaults {
		data[k] = v
	}
	for k, v := range msg.Data {
		data[k] = v
	}
	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("notification: render %s subject: %w", msg.Template, err)
	}
	if err := tpl.body.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("notification: render %s body: %w", msg.Template, err)
	}
	return &mail.Message{
		To:      append([]string(nil), msg.To...),
		Subject: subject.String(),
		Text:    body.String(),
	}, nil
}
