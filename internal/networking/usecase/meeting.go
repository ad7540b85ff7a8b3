package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/repository"
)

// MeetingDetector flips a thread's meeting flag once the oracle sees a
// mutually confirmed meeting in the full thread.
type MeetingDetector struct {
	store     repository.ThreadStateRepository
	oracle    ClassifierOracle
	checklist *ChecklistRecomputer
}

func NewMeetingDetector(store repository.ThreadStateRepository, oracle ClassifierOracle, checklist *ChecklistRecomputer) *MeetingDetector {
	return &MeetingDetector{
		store:     store,
		oracle:    oracle,
		checklist: checklist,
	}
}

// Detect returns true when this call marked the thread as having a meeting.
//
// The oracle is only consulted when the thread has no meeting yet and its
// stored messages go both ways; a one-sided thread cannot confirm anything.
func (d *MeetingDetector) Detect(ctx context.Context, fetcher ThreadFetcher, threadID, contactEmail, userID string) (bool, error) {
	thread, err := d.store.GetThread(ctx, threadID, userID)
	if err != nil {
		return false, fmt.Errorf("load thread: %w", err)
	}
	if thread == nil || thread.MeetingScheduled {
		return false, nil
	}

	directions, err := d.store.ListThreadDirections(ctx, threadID, userID)
	if err != nil {
		return false, fmt.Errorf("list thread messages: %w", err)
	}
	if !hasBothDirections(directions) {
		return false, nil
	}

	if fetcher == nil {
		return false, nil
	}
	turns, err := fetcher.FetchThread(ctx, threadID)
	if err != nil {
		return false, fmt.Errorf("fetch thread: %w", err)
	}

	if !d.oracle.DetectMeeting(ctx, turns) {
		return false, nil
	}

	if err := d.store.SetMeetingScheduled(ctx, threadID, userID); err != nil {
		return false, fmt.Errorf("set meeting scheduled: %w", err)
	}
	log.Printf("[MeetingDetector] Meeting scheduled in thread %s for user %s", threadID, userID)

	if _, err := d.checklist.Recompute(ctx, contactEmail, userID); err != nil {
		return true, err
	}
	return true, nil
}

func hasBothDirections(directions []domain.Direction) bool {
	var sent, received bool
	for _, dir := range directions {
		switch dir {
		case domain.DirectionSent:
			sent = true
		case domain.DirectionReceived:
			received = true
		}
	}
	return sent && received
}
