package invitationsrv

const inviteTemplateName = "invitation"

type inviteTemplateData struct {
	FullName    string
	InviterName string
	CompanyName string
	Link        string
	ExpiresAt   string
}

const inviteTemplateHTML = `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1f2937; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #111827;">You've been invited to HireCopilot</h2>
  <p>Hi {{.FullName}},</p>
  <p>{{.InviterName}} has invited you to join <strong>{{.CompanyName}}</strong> on HireCopilot.</p>
  <p style="margin: 32px 0;">
    <a href="{{.Link}}" style="background-color: #4f46e5; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Accept invitation</a>
  </p>
  <p style="color: #6b7280; font-size: 14px;">This invitation expires on {{.ExpiresAt}}. If the button does not work, copy this link into your browser:</p>
  <p style="color: #6b7280; font-size: 13px; word-break: break-all;">{{.Link}}</p>
  <p style="color: #9ca3af; font-size: 12px;">If you weren't expecting this invitation, you can ignore this email.</p>
</body>
</html>`
