// Package messaging relays estimate notifications to the host application's
// messaging API, directly or through a background queue.
package messaging

import (
	"strings"

	"github.com/odyssey-erp/estimator/internal/shared"
)

// Payload is the body accepted by the host messaging endpoint.
type Payload struct {
	PageID        string `json:"pageId"`
	RecipientID   string `json:"recipientId"`
	RecipientType string `json:"recipientType"`
	Message       string `json:"message"`
	Subject       string `json:"subject,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
}

// Input is the caller's message request.
type Input struct {
	RecipientID   string `json:"recipient_id" validate:"required"`
	RecipientType string `json:"recipient_type" validate:"required"`
	Message       string `json:"message"`
	Subject       string `json:"subject"`
	PageID        string `json:"page_id"`
	Async         bool   `json:"async"`
}

// BuildPayload resolves the target page from the input, then the session's
// page id, then the session page blob.
func BuildPayload(id shared.Identity, in Input) (Payload, error) {
	pageID := firstNonEmpty(in.PageID, id.PageID, sessionPageID(id))
	if pageID == "" {
		return Payload{}, shared.NewValidationError("page_id", "Unable to determine pageId for estimator message payload.")
	}
	return Payload{
		PageID:        pageID,
		RecipientID:   strings.TrimSpace(in.RecipientID),
		RecipientType: strings.TrimSpace(in.RecipientType),
		Message:       in.Message,
		Subject:       strings.TrimSpace(in.Subject),
		SessionID:     id.SessionID,
	}, nil
}

func sessionPageID(id shared.Identity) string {
	page, ok := id.Context["page"].(map[string]any)
	if !ok {
		return ""
	}
	v, _ := page["id"].(string)
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
