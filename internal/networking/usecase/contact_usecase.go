package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/repository"
	"github.com/abbywylie/Ripple/pkg/fuzzy"
)

// ContactDetail is a contact with its threads, most recent first.
type ContactDetail struct {
	Contact domain.Contact  `json:"contact"`
	Threads []domain.Thread `json:"threads"`
}

// ContactUsecase serves the read side of the networking state.
type ContactUsecase struct {
	store repository.ThreadStateRepository
}

func NewContactUsecase(store repository.ThreadStateRepository) *ContactUsecase {
	return &ContactUsecase{store: store}
}

// ListContacts returns the user's contacts. A non-empty query keeps only
// fuzzy matches on name or email, best match first.
func (u *ContactUsecase) ListContacts(ctx context.Context, userID, query string) ([]domain.Contact, error) {
	contacts, err := u.store.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return contacts, nil
	}

	type scored struct {
		contact domain.Contact
		score   float64
	}
	var matches []scored
	for _, c := range contacts {
		name := ""
		if c.Name != nil {
			name = *c.Name
		}
		if s := fuzzy.ContactScore(query, name, c.Email); s > 0 {
			matches = append(matches, scored{contact: c, score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]domain.Contact, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.contact)
	}
	return result, nil
}

// GetContact returns domain.ErrNotFound for unknown contacts.
func (u *ContactUsecase) GetContact(ctx context.Context, email, userID string) (*ContactDetail, error) {
	contact, err := u.store.GetContact(ctx, email, userID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, domain.ErrNotFound
	}

	threads, err := u.store.ListThreadsByContact(ctx, email, userID)
	if err != nil {
		return nil, err
	}
	if threads == nil {
		threads = []domain.Thread{}
	}
	return &ContactDetail{Contact: *contact, Threads: threads}, nil
}

// ThreadMessages returns the stored summaries of a networking thread.
func (u *ContactUsecase) ThreadMessages(ctx context.Context, threadID, userID string) ([]domain.Message, error) {
	thread, err := u.store.GetThread(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, domain.ErrNotFound
	}

	messages, err := u.store.ListMessagesByThread(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
