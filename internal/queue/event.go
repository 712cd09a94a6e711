// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into outbound notifications.
package queue

// TicketIssuedName is the queue carrying confirmations for freshly issued
// tickets.
const TicketIssuedName = "ticket.issued"

// TicketIssuedEvent is published after a registration commits.  It carries
// everything a notification worker needs to compose the confirmation email
// without querying the primary database.  QRImage is a PNG data URI ready
// for embedding.
type TicketIssuedEvent struct {
	BookingID       uint64 `json:"booking_id"`
	Recipient       string `json:"recipient"`
	RecipientName   string `json:"recipient_name"`
	ExhibitionTitle string `json:"exhibition_title"`
	ExhibitionDates string `json:"exhibition_dates"`
	Location        string `json:"location"`
	SeatCount       uint32 `json:"seat_count"`
	QRImage         string `json:"qr_image"`
	IssuedAt        string `json:"issued_at"`
}
