package notify

import (
	"context"

	"refund-lifecycle-be/internal/entity"
	"refund-lifecycle-be/internal/pkg/logger"
	"refund-lifecycle-be/internal/pkg/mailer"
)

var customerMessages = map[entity.RefundStatus]string{
	entity.RefundStatusApproved:  "Your refund has been approved and will be sent to you shortly.",
	entity.RefundStatusRejected:  "Unfortunately your refund request could not be approved.",
	entity.RefundStatusCompleted: "The money is on its way. Depending on your bank it may take a few days to appear.",
	entity.RefundStatusCancelled: "Your refund request has been cancelled.",
}

// EmailNotifier emails the customer when a refund reaches a customer-visible status.
type EmailNotifier struct {
	mailer mailer.IEmailService
	logger logger.ILogger
	async  bool
}

func NewEmailNotifier(m mailer.IEmailService, logger logger.ILogger, async bool) *EmailNotifier {
	return &EmailNotifier{mailer: m, logger: logger, async: async}
}

func (n *EmailNotifier) RefundCreated(context.Context, *entity.Refund) {}

func (n *EmailNotifier) RefundAnnotated(context.Context, *entity.Refund) {}

func (n *EmailNotifier) RefundTransitioned(_ context.Context, r *entity.Refund, _ entity.RefundStatus) {
	msg, ok := customerMessages[r.Status]
	if !ok || r.CustomerEmail == "" || n.mailer == nil {
		return
	}
	update := mailer.RefundUpdate{
		CustomerName: r.CustomerName,
		OrderNumber:  r.OrderNumber,
		Status:       string(r.Status),
		Amount:       r.RefundAmount,
		Currency:     r.Currency,
		Message:      msg,
	}
	send := func() {
		if err := n.mailer.SendRefundUpdate(r.CustomerEmail, update); err != nil {
			n.logger.Error("NOTIFY", "Failed to email customer", map[string]interface{}{
				"refund_id": r.ID.String(),
				"status":    string(r.Status),
				"error":     err.Error(),
			})
			return
		}
		n.logger.Info("NOTIFY", "Customer emailed", map[string]interface{}{
			"refund_id": r.ID.String(),
			"status":    string(r.Status),
		})
	}
	if n.async {
		go send()
		return
	}
	send()
}
