package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
	"github.com/PabloGalante/voicenote/internal/observability"
)

// Service records support tickets.
type Service struct {
	store domain.ContactStore
	now   func() time.Time
}

func NewService(store domain.ContactStore) *Service {
	return &Service{store: store, now: time.Now}
}

type SubmitInput struct {
	Email       string
	CarbonCopy  string
	Subject     string
	Description string
	UserID      string
}

// Submit validates and stores a ticket. Email, subject and description are required.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (domain.ContactID, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Description) == "" {
		return "", fmt.Errorf("%w: missing required fields: email, subject, description", domain.ErrValidation)
	}

	msg := &domain.ContactMessage{
		Email:       in.Email,
		CarbonCopy:  in.CarbonCopy,
		Subject:     in.Subject,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
	}
	if in.UserID != "" {
		uid := domain.UserID(in.UserID)
		msg.UserID = &uid
	}

	id, err := s.store.AddContact(ctx, msg)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("contact submit failed", "error", err)
		return "", fmt.Errorf("submit contact: %w", err)
	}

	observability.LoggerFromContext(ctx).Info("contact submitted", "contact_id", id)
	return id, nil
}
