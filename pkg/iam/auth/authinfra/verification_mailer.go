package authinfra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hirecopilot/relay/pkg/asyncx"
	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/jobx"
	"github.com/hirecopilot/relay/pkg/logx"
	"github.com/hirecopilot/relay/pkg/notifx"
)

// JobTypeVerificationEmail delivers email-verification links off the request
// path. The queue retries transient provider failures.
const JobTypeVerificationEmail = "auth:verification_email"

const mailQueue = "mail"

const verificationTemplateName = "email_verification"

// mailSendTimeout bounds a single provider call; slow SES calls count as a
// failed attempt and go through the normal retry path.
const mailSendTimeout = 10 * time.Second

const verificationTemplateHTML = `<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Helvetica, Arial, sans-serif; color: #1f2937; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="color: #111827;">Verify your email</h2>
  <p>Hi {{.Name}},</p>
  <p>Confirm this address to finish setting up your HireCopilot account.</p>
  <p style="margin: 32px 0;">
    <a href="{{.Link}}" style="background-color: #4f46e5; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Verify email</a>
  </p>
  <p style="color: #6b7280; font-size: 14px;">If the button does not work, copy this link into your browser:</p>
  <p style="color: #6b7280; font-size: 13px; word-break: break-all;">{{.Link}}</p>
  <p style="color: #9ca3af; font-size: 12px;">If you didn't create an account, you can ignore this email.</p>
</body>
</html>`

type verificationPayload struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// JobxVerificationMailer implements auth.VerificationMailer on top of the job
// queue: SendVerification only enqueues, delivery happens in the worker.
type JobxVerificationMailer struct {
	jobs        jobx.JobEnqueuer
	mailer      *notifx.Client
	baseURL     string
	fromAddress string
}

func NewJobxVerificationMailer(jobs jobx.JobEnqueuer, mailer *notifx.Client, baseURL, fromAddress string) *JobxVerificationMailer {
	m := &JobxVerificationMailer{
		jobs:        jobs,
		mailer:      mailer,
		baseURL:     baseURL,
		fromAddress: fromAddress,
	}
	if err := mailer.RegisterTemplate(verificationTemplateName, verificationTemplateHTML); err != nil {
		logx.WithError(err).Error("failed to register verification email template")
	}
	return m
}

// SendVerification enqueues the delivery job.
func (m *JobxVerificationMailer) SendVerification(ctx context.Context, token auth.EmailVerificationToken, displayName string) error {
	payload, err := json.Marshal(verificationPayload{
		Token: token.Token,
		Email: token.Email,
		Name:  displayName,
	})
	if err != nil {
		return errx.Wrap(err, "failed to marshal verification payload", errx.TypeInternal)
	}

	_, err = m.jobs.Enqueue(ctx, jobx.Job{
		Type:       JobTypeVerificationEmail,
		Queue:      mailQueue,
		Payload:    payload,
		MaxRetries: 3,
	})
	if err != nil {
		return errx.Wrap(err, "failed to enqueue verification email", errx.TypeInternal)
	}
	return nil
}

// RegisterJobs wires the delivery handler into the worker.
func (m *JobxVerificationMailer) RegisterJobs(client *jobx.Client) {
	client.Register(JobTypeVerificationEmail, m.handleDelivery)
}

func (m *JobxVerificationMailer) handleDelivery(ctx context.Context, job *jobx.JobInfo) error {
	var payload verificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return errx.Wrap(err, "failed to unmarshal verification payload", errx.TypeInternal)
	}

	data := struct {
		Name string
		Link string
	}{
		Name: payload.Name,
		Link: m.baseURL + "/verify-email?token=" + payload.Token,
	}

	msg := notifx.EmailMessage{
		From:    m.fromAddress,
		To:      []string{payload.Email},
		Subject: "Verify your HireCopilot email",
	}

	// Short in-process retry smooths provider blips; the queue handles
	// anything longer.
	_, err := asyncx.RetryWithBackoff(ctx, 3, 500*time.Millisecond, func(ctx context.Context) (struct{}, error) {
		return asyncx.WithTimeout(ctx, mailSendTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, m.mailer.SendTemplatedEmail(ctx, verificationTemplateName, data, msg)
		})
	})
	if err != nil {
		logx.WithError(err).WithField("email", payload.Email).
			Warn("verification email delivery failed")
		return err
	}

	return nil
}
