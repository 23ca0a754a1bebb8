package intent

import (
	"strings"
	"testing"
)

func TestEmailForRegistration(t *testing.T) {
	it := New(RegistrationConfirmed, Recipient{Name: "Ada", Email: "ada@example.com"}, Context{
		FieldEventTitle: "Launch Party",
		FieldEventDate:  "2026-09-01",
		FieldLocation:   "Hall B",
	})
	c := EmailFor(it)
	if c.Subject != "Registration Confirmed: Launch Party" {
		t.Fatalf("unexpected subject: %q", c.Subject)
	}
	if !strings.Contains(c.HTML, "Hello Ada") || !strings.Contains(c.HTML, "Hall B") {
		t.Fatalf("body missing interpolated fields: %q", c.HTML)
	}
	if c.Text == "" {
		t.Fatal("expected a text fallback")
	}
}

func TestMissingContextRendersPlaceholder(t *testing.T) {
	it := New(ReminderDue, Recipient{Name: "Ada"}, Context{})
	c := EmailFor(it)
	if !strings.Contains(c.Subject, Placeholder) {
		t.Fatalf("expected %q in subject, got %q", Placeholder, c.Subject)
	}
	if body := SMSFor(it); !strings.Contains(body, Placeholder) {
		t.Fatalf("expected %q in sms body, got %q", Placeholder, body)
	}
}

func TestApprovalDecisionBranches(t *testing.T) {
	approved := New(ApprovalDecision, Recipient{Name: "Ada"}, Context{FieldEventTitle: "Expo", FieldApproved: "true"})
	rejected := New(ApprovalDecision, Recipient{Name: "Ada"}, Context{FieldEventTitle: "Expo", FieldApproved: "false"})
	if got := EmailFor(approved).Subject; got != "Event APPROVED: Expo" {
		t.Fatalf("approved subject: %q", got)
	}
	if got := EmailFor(rejected).Subject; got != "Event REJECTED: Expo" {
		t.Fatalf("rejected subject: %q", got)
	}
	if !strings.Contains(SMSFor(rejected), "rejected") {
		t.Fatalf("sms should mention rejection: %q", SMSFor(rejected))
	}
}

func TestSMSForEveryKindIsSingleLine(t *testing.T) {
	kinds := []Kind{RegistrationConfirmed, ReminderDue, ApprovalDecision, CheckInConfirmed, TicketPurchased}
	for _, k := range kinds {
		body := SMSFor(New(k, Recipient{Name: "Ada", Phone: "+15550001111"}, Context{FieldEventTitle: "Expo"}))
		if body == "" || strings.Contains(body, "\n") {
			t.Fatalf("kind %s: expected non-empty single line, got %q", k, body)
		}
	}
}

func TestIntentIDsAreUnique(t *testing.T) {
	a := New(CheckInConfirmed, Recipient{Name: "Ada"}, nil)
	b := New(CheckInConfirmed, Recipient{Name: "Ada"}, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}
