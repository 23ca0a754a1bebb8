package intent

import "fmt"

// Context keys the template builders interpolate. Absent keys render as
// Placeholder rather than failing the render.
const (
	FieldEventTitle = "event_title"
	FieldEventDate  = "event_date"
	FieldEventTime  = "event_time"
	FieldLocation   = "location"
	FieldTicketType = "ticket_type"
	FieldApproved   = "approved"
)

// EmailContent is the rendered email for one intent.
type EmailContent struct {
	Subject string
	HTML    string
	Text    string
}

// EmailFor renders the email subject and body for an intent.
func EmailFor(it Intent) EmailContent {
	name := it.Recipient.Name
	if name == "" {
		name = "there"
	}
	title := it.Context.Field(FieldEventTitle)
	date := it.Context.Field(FieldEventDate)
	loc := it.Context.Field(FieldLocation)

	switch it.Kind {
	case RegistrationConfirmed:
		return EmailContent{
			Subject: fmt.Sprintf("Registration Confirmed: %s", title),
			HTML: fmt.Sprintf(
				"<h1>You're registered for %s!</h1><p>Hello %s,</p><p>Your registration for %s on %s is confirmed.</p><p>Location: %s</p><p>Thank you for using EventCraft!</p>",
				title, name, title, date, loc),
			Text: fmt.Sprintf("Hello %s, your registration for %s on %s is confirmed. Location: %s.", name, title, date, loc),
		}
	case ReminderDue:
		tm := it.Context.Field(FieldEventTime)
		return EmailContent{
			Subject: fmt.Sprintf("Reminder: %s is tomorrow!", title),
			HTML: fmt.Sprintf(
				"<h1>Event Reminder</h1><p>Hello %s,</p><p>This is a reminder that %s is happening tomorrow at %s.</p><p>Date: %s</p><p>Time: %s</p>",
				name, title, loc, date, tm),
			Text: fmt.Sprintf("Hello %s, reminder: %s is happening tomorrow at %s. Date: %s, time: %s.", name, title, loc, date, tm),
		}
	case ApprovalDecision:
		status := "REJECTED"
		message := "Your event has been rejected. Please check your organizer dashboard for details."
		if it.Context.Field(FieldApproved) == "true" {
			status = "APPROVED"
			message = "Your event has been approved and is now published."
		}
		return EmailContent{
			Subject: fmt.Sprintf("Event %s: %s", status, title),
			HTML: fmt.Sprintf(
				"<h1>Event %s</h1><p>Hello %s,</p><p>%s</p><p>Event: %s</p><p>Date: %s</p>",
				status, name, message, title, date),
			Text: fmt.Sprintf("Hello %s, %s Event: %s, date: %s.", name, message, title, date),
		}
	case CheckInConfirmed:
		return EmailContent{
			Subject: fmt.Sprintf("Checked in: %s", title),
			HTML: fmt.Sprintf(
				"<h1>Check-In Confirmed</h1><p>Hello %s,</p><p>You've successfully checked in to %s. Enjoy the event!</p>",
				name, title),
			Text: fmt.Sprintf("Hello %s, you've successfully checked in to %s. Enjoy the event!", name, title),
		}
	case TicketPurchased:
		ticket := it.Context.Field(FieldTicketType)
		return EmailContent{
			Subject: fmt.Sprintf("Ticket Confirmed: %s", title),
			HTML: fmt.Sprintf(
				"<h1>Ticket Confirmed</h1><p>Hello %s,</p><p>Thank you for purchasing a %s ticket for %s. Your ticket has been confirmed!</p><p>Date: %s</p>",
				name, ticket, title, date),
			Text: fmt.Sprintf("Hello %s, thank you for purchasing a %s ticket for %s. Your ticket has been confirmed!", name, ticket, title),
		}
	}
	// Unknown kinds still produce something deliverable.
	return EmailContent{
		Subject: fmt.Sprintf("EventCraft notification: %s", title),
		HTML:    fmt.Sprintf("<p>Hello %s,</p><p>You have a new notification for %s.</p>", name, title),
		Text:    fmt.Sprintf("Hello %s, you have a new notification for %s.", name, title),
	}
}

// SMSFor renders the single-line short-message body for an intent.
func SMSFor(it Intent) string {
	title := it.Context.Field(FieldEventTitle)
	switch it.Kind {
	case RegistrationConfirmed:
		return fmt.Sprintf("Your registration for %s on %s is confirmed. See you there!", title, it.Context.Field(FieldEventDate))
	case ReminderDue:
		return fmt.Sprintf("Reminder: %s is tomorrow at %s in %s. See you there!", title, it.Context.Field(FieldEventTime), it.Context.Field(FieldLocation))
	case ApprovalDecision:
		if it.Context.Field(FieldApproved) == "true" {
			return fmt.Sprintf("Your event %s has been approved and is now published.", title)
		}
		return fmt.Sprintf("Your event %s has been rejected. Check your organizer dashboard for details.", title)
	case CheckInConfirmed:
		return fmt.Sprintf("You've successfully checked in to %s. Enjoy the event!", title)
	case TicketPurchased:
		return fmt.Sprintf("Thank you for purchasing a %s ticket for %s. Your ticket has been confirmed!", it.Context.Field(FieldTicketType), title)
	}
	return fmt.Sprintf("You have a new EventCraft notification for %s.", title)
}
