package main

import (
	"fmt"

	"stayport/libs/mailer"
)

var bookingStatusSubjects = map[string]string{
	"confirmed": "Your Stayport booking is confirmed",
	"declined":  "Update on your Stayport booking request",
	"completed": "Thanks for staying with Stayport",
	"cancelled": "Your Stayport booking was cancelled",
}

// sendBookingRequestEmails notifies the guest and the operations inbox about
// a new booking request. Email failures are logged but never fail the request.
func (a *App) sendBookingRequestEmails(booking *Booking) {
	statusURL := buildPublicURL(a.cfg.PublicBaseURL, fmt.Sprintf("/bookings/%s", booking.PublicID))

	_, err := a.mailer.Send(mailer.Message{
		To:      []string{booking.GuestEmail},
		Subject: fmt.Sprintf("Booking request received: %s", booking.PublicID),
		Text: fmt.Sprintf(
			"Hi %s,\n\nWe received your request for %s (%s), %s to %s, %d guests.\nTotal quote: EUR %.2f for %d nights.\n\nTrack your request: %s\n\nWe will confirm availability shortly.",
			booking.GuestName, booking.ListingName, booking.UnitName,
			booking.CheckIn, booking.CheckOut, booking.Guests,
			float64(booking.QuoteTotalCents)/100, booking.Nights, statusURL,
		),
	})
	if err != nil {
		a.log.Error("guest booking email failed", "booking_id", booking.ID, "err", err)
	}

	_, err = a.mailer.Send(mailer.Message{
		To:      []string{a.cfg.BookingNotifyEmail},
		ReplyTo: booking.GuestEmail,
		Subject: fmt.Sprintf("[Stayport] New booking request %s", booking.PublicID),
		Text: fmt.Sprintf(
			"New request from %s <%s>: %s / %s, %s to %s, %d guests, EUR %.2f.",
			booking.GuestName, booking.GuestEmail, booking.ListingName, booking.UnitName,
			booking.CheckIn, booking.CheckOut, booking.Guests,
			float64(booking.QuoteTotalCents)/100,
		),
	})
	if err != nil {
		a.log.Error("operator booking email failed", "booking_id", booking.ID, "err", err)
	}
}

func (a *App) sendBookingStatusEmail(booking *Booking) {
	subject, ok := bookingStatusSubjects[booking.Status]
	if !ok {
		return
	}
	statusURL := buildPublicURL(a.cfg.PublicBaseURL, fmt.Sprintf("/bookings/%s", booking.PublicID))

	_, err := a.mailer.Send(mailer.Message{
		To:      []string{booking.GuestEmail},
		Subject: subject,
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour booking %s for %s (%s), %s to %s, is now %s.\n\nDetails: %s",
			booking.GuestName, booking.PublicID, booking.ListingName, booking.UnitName,
			booking.CheckIn, booking.CheckOut, booking.Status, statusURL,
		),
	})
	if err != nil {
		a.log.Error("booking status email failed", "booking_id", booking.ID, "status", booking.Status, "err", err)
	}
}
