package usecase

import (
	"context"
	"fmt"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/repository"
)

// ComputeChecklist derives a contact's checklist from the directions of all
// its stored messages, oldest first, and whether any of its threads has a
// scheduled meeting.
func ComputeChecklist(directions []domain.Direction, meetingScheduled bool) domain.Checklist {
	firstSent := -1
	hasReceived := false
	respondedAfterSent := false

	for i, d := range directions {
		switch d {
		case domain.DirectionSent:
			if firstSent < 0 {
				firstSent = i
			}
		case domain.DirectionReceived:
			hasReceived = true
			if firstSent >= 0 {
				respondedAfterSent = true
			}
		}
	}

	hasSent := firstSent >= 0
	return domain.Checklist{
		HasReachedOut:         hasSent,
		AwaitingReplyFromUser: hasReceived && !hasSent,
		HasContactResponded:   respondedAfterSent,
		HasScheduledMeeting:   meetingScheduled,
	}
}

// ChecklistRecomputer rescans a contact's history and stores its checklist.
type ChecklistRecomputer struct {
	store repository.ThreadStateRepository
}

func NewChecklistRecomputer(store repository.ThreadStateRepository) *ChecklistRecomputer {
	return &ChecklistRecomputer{store: store}
}

// Recompute runs a full rescan for (email, userID); there are no incremental counters.
func (c *ChecklistRecomputer) Recompute(ctx context.Context, email, userID string) (domain.Checklist, error) {
	directions, err := c.store.ListContactDirections(ctx, email, userID)
	if err != nil {
		return domain.Checklist{}, fmt.Errorf("list contact messages: %w", err)
	}
	meeting, err := c.store.ContactHasScheduledMeeting(ctx, email, userID)
	if err != nil {
		return domain.Checklist{}, fmt.Errorf("check contact meetings: %w", err)
	}

	checklist := ComputeChecklist(directions, meeting)
	if err := c.store.UpdateContactChecklist(ctx, email, userID, checklist); err != nil {
		return domain.Checklist{}, fmt.Errorf("update checklist: %w", err)
	}
	return checklist, nil
}
