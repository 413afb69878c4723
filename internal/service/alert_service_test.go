package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"gradewatch/internal/models"
	"gradewatch/internal/risk"
)

type fakeSender struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func digestFixture() (risk.SectionSummary, []StudentReport) {
	summary := risk.SectionSummary{Section: "BSIT 1A", Size: 3, RiskCount: 1}
	reports := []StudentReport{
		{
			Student:    models.Student{ID: "s1", Name: "<Aquino>"},
			FinalGrade: gradeOf(58.456),
			Risk:       risk.Classify(58.456, 1, true),
		},
		{
			Student:    models.Student{ID: "s2", Name: "Bautista"},
			FinalGrade: gradeOf(90),
			Risk:       risk.Classify(90, 0, true),
		},
	}
	reports[0].Attendance.Overall.Absences = 1
	return summary, reports
}

func TestBuildRiskDigest(t *testing.T) {
	summary, reports := digestFixture()
	d := BuildRiskDigest(summary, reports, "https://grades.example.edu")

	if d.Subject != "At-risk students in BSIT 1A: 1 of 3" {
		t.Errorf("Subject = %q", d.Subject)
	}
	if !strings.Contains(d.HTMLBody, "&lt;Aquino&gt;") || strings.Contains(d.HTMLBody, "<Aquino>") {
		t.Error("student name not escaped in HTML body")
	}
	if strings.Contains(d.TextBody, "Bautista") {
		t.Error("on-track student listed in digest")
	}
	if !strings.Contains(d.TextBody, "- <Aquino>: High Risk (grade 58.46, 1 absences)") {
		t.Errorf("TextBody missing student line:\n%s", d.TextBody)
	}
	if !strings.Contains(d.TextBody, "https://grades.example.edu/api/sections/BSIT%201A/roster?atRisk=true") {
		t.Errorf("TextBody missing roster link:\n%s", d.TextBody)
	}
}

func TestSendRiskDigest(t *testing.T) {
	summary, reports := digestFixture()
	ctx := context.Background()

	t.Run("sends through SES", func(t *testing.T) {
		sender := &fakeSender{}
		svc := newAlertService(sender, "alerts@example.edu", "GradeWatch", "https://grades.example.edu", false)

		if err := svc.SendRiskDigest(ctx, "adviser@example.edu", summary, reports); err != nil {
			t.Fatalf("SendRiskDigest() error = %v", err)
		}
		if len(sender.inputs) != 1 {
			t.Fatalf("sent %d emails, want 1", len(sender.inputs))
		}
		in := sender.inputs[0]
		if got := aws.ToString(in.FromEmailAddress); got != "GradeWatch <alerts@example.edu>" {
			t.Errorf("From = %q", got)
		}
		if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "adviser@example.edu" {
			t.Errorf("To = %v", got)
		}
		if got := aws.ToString(in.Content.Simple.Subject.Data); !strings.HasPrefix(got, "At-risk students") {
			t.Errorf("Subject = %q", got)
		}
	})

	t.Run("wraps SES errors", func(t *testing.T) {
		boom := errors.New("throttled")
		svc := newAlertService(&fakeSender{err: boom}, "alerts@example.edu", "", "", false)
		if err := svc.SendRiskDigest(ctx, "adviser@example.edu", summary, reports); !errors.Is(err, boom) {
			t.Errorf("SendRiskDigest() error = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		svc, err := NewAlertService(ctx, "us-east-1", "", "", "", false)
		if err != nil {
			t.Fatalf("NewAlertService() error = %v", err)
		}
		if svc.IsEnabled() {
			t.Error("service enabled without a sender address")
		}
		if err := svc.SendRiskDigest(ctx, "adviser@example.edu", summary, reports); !errors.Is(err, ErrEmailDisabled) {
			t.Errorf("SendRiskDigest() error = %v, want ErrEmailDisabled", err)
		}
	})
}
