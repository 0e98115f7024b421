package notify

import (
	"context"
	"log"
	"time"
)

// Notification kinds emitted by the booking and inventory services.
const (
	KindAppointmentStatus = "appointment_status"
	KindReorderAdmin      = "reorder_admin"
	KindReorderSupplier   = "reorder_supplier"
	KindRestockApproved   = "restock_approved"
)

// Notifier is the outbound channel boundary. Implementations may fan out to
// email, SMS or a message broker; the caller never depends on delivery.
type Notifier interface {
	Send(ctx context.Context, kind string, payload map[string]any) error
}

// LogNotifier writes notifications to the process log.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, kind string, payload map[string]any) error {
	log.Printf("[notify] kind=%s payload=%v", kind, payload)
	return nil
}

// Dispatch sends a notification without blocking the caller. Delivery errors
// are logged and swallowed; the triggering operation has already succeeded.
func Dispatch(n Notifier, kind string, payload map[string]any) {
	if n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := n.Send(ctx, kind, payload); err != nil {
			log.Printf("notification failed kind=%s err=%v", kind, err)
		}
	}()
}
