package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"kinship/internal/models"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. If fromEmail is empty the
// service starts disabled and every send becomes a logged no-op.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendInvitationEmail sends the invite email with an accept link
func (s *EmailService) SendInvitationEmail(ctx context.Context, inv *models.Invitation) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): invitation to %s", inv.InviteeEmail)
		return nil
	}

	acceptLink := fmt.Sprintf("%s/invitations/accept?token=%s", s.appBaseURL, inv.Token)
	connector := strings.ReplaceAll(string(inv.Connector), "_", " ")
	subject := fmt.Sprintf("%s invited you to share their family circle", inv.InviterName)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #4a90e2; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Family Invitation</h1>
		</div>
		<div class="content">
			<p>Hi,</p>
			<p>%s has invited you to connect as their %s and share family members with you.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">View Invitation</a>
			</p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
			<p><strong>This invitation expires on %s.</strong></p>
			<p>If you don't know this person, you can safely ignore this email.</p>
		</div>
		<div class="footer">
			<p>This is an automated email. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, inv.InviterName, connector, acceptLink, acceptLink, inv.ExpiresAt.Format("January 2, 2006"))

	textBody := fmt.Sprintf(`Hi,

%s has invited you to connect as their %s and share family members with you.

View the invitation here:
%s

This invitation expires on %s.

If you don't know this person, you can safely ignore this email.
`, inv.InviterName, connector, acceptLink, inv.ExpiresAt.Format("January 2, 2006"))

	return s.sendEmail(ctx, inv.InviteeEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email via SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data: aws.String(subject),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data: aws.String(htmlBody),
					},
					Text: &types.Content{
						Data: aws.String(textBody),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email sent to %s: %s", toEmail, subject)
	return nil
}
