package email

import (
	"context"

	"github.com/deppfellow/inquiry-intake/internal/model"
)

// SendInquiryReceived notifies admin about a new inquiry.
func (c *Client) SendInquiryReceived(ctx context.Context, admin string, inquiry model.Inquiry) (string, error) {
	msg := ComposeInquiryReceived(inquiry)
	return c.SendText(ctx, admin, msg.Subject, msg.Text)
}
