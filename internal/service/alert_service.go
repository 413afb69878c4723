package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"gradewatch/internal/grading"
	"gradewatch/internal/risk"
)

// emailSender is the part of the SES client the alert service uses
type emailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// AlertService e-mails at-risk digests to instructors via Amazon SES
type AlertService struct {
	client     emailSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewAlertService creates a new alert service. An empty fromEmail yields a
// disabled service.
func NewAlertService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*AlertService, error) {
	if fromEmail == "" {
		log.Println("Alert service disabled: SES_FROM_EMAIL not configured")
		return &AlertService{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing alert service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Alert service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newAlertService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newAlertService(client emailSender, fromEmail, fromName, appBaseURL string, debug bool) *AlertService {
	return &AlertService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether digests can be sent
func (s *AlertService) IsEnabled() bool {
	return s.enabled
}

// Digest is a rendered at-risk e-mail
type Digest struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// SendRiskDigest e-mails the at-risk students of one section to an instructor
func (s *AlertService) SendRiskDigest(ctx context.Context, toEmail string, summary risk.SectionSummary, reports []StudentReport) error {
	if !s.enabled {
		log.Printf("Skipping risk digest (service disabled): section %s to %s", summary.Section, toEmail)
		return ErrEmailDisabled
	}

	digest := BuildRiskDigest(summary, reports, s.appBaseURL)
	if s.debug {
		log.Printf("[DEBUG] Sending risk digest: subject=%s, to=%s, students=%d", digest.Subject, toEmail, len(reports))
	}
	return s.sendEmail(ctx, toEmail, digest)
}

// BuildRiskDigest renders the digest for a section. Only at-risk reports are listed.
func BuildRiskDigest(summary risk.SectionSummary, reports []StudentReport, appBaseURL string) Digest {
	subject := fmt.Sprintf("At-risk students in %s: %d of %d", summary.Section, summary.RiskCount, summary.Size)
	rosterLink := fmt.Sprintf("%s/api/sections/%s/roster?atRisk=true", appBaseURL, url.PathEscape(summary.Section))

	var rows, lines strings.Builder
	for _, r := range reports {
		if !r.Risk.AtRisk {
			continue
		}
		grade := grading.Round2(r.FinalGrade.Value)
		absences := r.Attendance.Overall.Absences
		fmt.Fprintf(&rows, "\t\t\t\t<tr><td>%s</td><td>%s</td><td>%.2f</td><td>%d</td></tr>\n",
			html.EscapeString(r.Student.Name), html.EscapeString(string(r.Risk.Label)), grade, absences)
		fmt.Fprintf(&lines, "- %s: %s (grade %.2f, %d absences)\n", r.Student.Name, r.Risk.Label, grade, absences)
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #c0392b; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		table { width: 100%%; border-collapse: collapse; }
		th, td { text-align: left; padding: 6px; border-bottom: 1px solid #ddd; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
			<p>%d of %d students in this section are flagged at risk.</p>
			<table>
				<tr><th>Student</th><th>Risk</th><th>Final grade</th><th>Absences</th></tr>
%s			</table>
			<p><a href="%s">Open the roster</a></p>
		</div>
		<div class="footer">
			<p>This is an automated email from GradeWatch. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(summary.Section), summary.RiskCount, summary.Size, rows.String(), html.EscapeString(rosterLink))

	textBody := fmt.Sprintf(`Section %s: %d of %d students are flagged at risk.

%s
Roster: %s

---
This is an automated email from GradeWatch. Please do not reply.
`, summary.Section, summary.RiskCount, summary.Size, lines.String(), rosterLink)

	return Digest{Subject: subject, HTMLBody: htmlBody, TextBody: textBody}
}

// sendEmail sends an email using Amazon SES
func (s *AlertService) sendEmail(ctx context.Context, toEmail string, d Digest) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(d.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(d.HTMLBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(d.TextBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		if s.debug {
			log.Printf("[DEBUG] SES SendEmail failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, d.Subject)
	return nil
}
