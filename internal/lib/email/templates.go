package email

import (
	"fmt"
	"strings"

	"github.com/deppfellow/inquiry-intake/internal/model"
)

// InquiryReceivedSubject is the subject line of inquiry notifications.
const InquiryReceivedSubject = "New inquiry received"

// Message is a composed plain-text e-mail.
type Message struct {
	Subject string
	Text    string
}

// ComposeInquiryReceived renders the administrator notification for an
// inquiry. Items are joined with ", "; an empty item list renders as an
// empty string.
func ComposeInquiryReceived(inquiry model.Inquiry) Message {
	return Message{
		Subject: InquiryReceivedSubject,
		Text: fmt.Sprintf("New inquiry received: %s Items: %s",
			inquiry.InquiryType,
			strings.Join(inquiry.InquiryItems, ", "),
		),
	}
}
