package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/imobiliare-next/internal/config"
)

func TestBuildAnnouncementEmailContent(t *testing.T) {
	tests := []struct {
		name             string
		build            func() (string, string)
		wantSubject      []string
		wantBodyContains []string
	}{
		{
			name:             "reminder_plural",
			build:            func() (string, string) { return buildExpirationReminderContent("Ana", "https://imo.ro/r", 3) },
			wantSubject:      []string{"3 days"},
			wantBodyContains: []string{"Hello Ana", "https://imo.ro/r"},
		},
		{
			name:             "reminder_singular",
			build:            func() (string, string) { return buildExpirationReminderContent("", "https://imo.ro/r", 1) },
			wantSubject:      []string{"1 day"},
			wantBodyContains: []string{"Hello there", "1 day."},
		},
		{
			name:             "expired",
			build:            func() (string, string) { return buildExpiredNoticeContent("Ion", "https://imo.ro/renew") },
			wantSubject:      []string{"expired"},
			wantBodyContains: []string{"Hello Ion", "https://imo.ro/renew"},
		},
		{
			name:             "confirmation",
			build:            func() (string, string) { return buildAnnouncementConfirmationContent("Ion", "https://imo.ro/a/1") },
			wantSubject:      []string{"published"},
			wantBodyContains: []string{"now active", "https://imo.ro/a/1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := tt.build()
			for _, expected := range tt.wantSubject {
				if !strings.Contains(subject, expected) {
					t.Fatalf("subject missing %q: %s", expected, subject)
				}
			}
			for _, expected := range tt.wantBodyContains {
				if !strings.Contains(body, expected) {
					t.Fatalf("body missing %q: %s", expected, body)
				}
			}
		})
	}
}

func TestEmailServiceRejectsWhenDisabledOrMisconfigured(t *testing.T) {
	ctx := context.Background()
	disabled := NewEmailService(&config.EmailConfig{Enabled: false})
	if err := disabled.SendExpiredNotice(ctx, "a@b.ro", "A", "link"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}

	missingHost := NewEmailService(&config.EmailConfig{Enabled: true, From: "noreply@imo.ro"})
	if err := missingHost.SendAnnouncementConfirmation(ctx, "a@b.ro", "A", "link"); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected not configured error, got %v", err)
	}

	configured := NewEmailService(&config.EmailConfig{Enabled: true, Host: "smtp.imo.ro", Port: 25, From: "noreply@imo.ro"})
	if err := configured.SendExpirationReminder(ctx, "not-an-email", "A", "link", 2); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email error, got %v", err)
	}
}

func TestBuildRenewLink(t *testing.T) {
	if got := BuildRenewLink("https://imo.ro/", 15); got != "https://imo.ro/payment-packages?announcementId=15" {
		t.Fatalf("unexpected renew link: %s", got)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "smtp_550_no_such_recipient",
			err:  errors.New("550 No such recipient here"),
			want: true,
		},
		{
			name: "smtp_user_unknown",
			err:  errors.New("SMTP 5.1.1 user unknown"),
			want: true,
		},
		{
			name: "smtp_550_mailbox_unavailable",
			err:  errors.New("550 mailbox unavailable"),
			want: true,
		},
		{
			name: "network_timeout",
			err:  errors.New("dial tcp timeout"),
			want: false,
		},
		{
			name: "nil_error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	rejected := errors.New("550 No such recipient here")
	if got := normalizeEmailSendError(rejected); !errors.Is(got, ErrEmailRecipientRejected) {
		t.Fatalf("normalizeEmailSendError() expected ErrEmailRecipientRejected, got %v", got)
	}

	networkErr := errors.New("dial tcp timeout")
	if got := normalizeEmailSendError(networkErr); !errors.Is(got, networkErr) {
		t.Fatalf("normalizeEmailSendError() should keep original error, got %v", got)
	}

	if got := normalizeEmailSendError(nil); got != nil {
		t.Fatalf("normalizeEmailSendError(nil) should be nil, got %v", got)
	}
}
