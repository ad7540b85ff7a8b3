package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/abbywylie/Ripple/internal/networking/domain"
	"github.com/abbywylie/Ripple/internal/networking/repository"
)

// MessageProcessor runs one mail message through classification and records
// the outcome in the thread state store.
type MessageProcessor struct {
	store     repository.ThreadStateRepository
	oracle    ClassifierOracle
	checklist *ChecklistRecomputer
	meetings  *MeetingDetector
}

func NewMessageProcessor(store repository.ThreadStateRepository, oracle ClassifierOracle) *MessageProcessor {
	checklist := NewChecklistRecomputer(store)
	return &MessageProcessor{
		store:     store,
		oracle:    oracle,
		checklist: checklist,
		meetings:  NewMeetingDetector(store, oracle, checklist),
	}
}

// Process classifies msg for owner. threads is used for meeting detection and
// may be nil, in which case meeting detection is skipped.
func (p *MessageProcessor) Process(ctx context.Context, owner domain.Mailbox, threads ThreadFetcher, msg domain.MailMessage) domain.Result {
	if msg.ID == "" || owner.UserID == "" {
		return domain.SkippedNotNetworking(domain.ReasonMissingID)
	}

	exists, err := p.store.MessageExists(ctx, msg.ID, owner.UserID)
	if err != nil {
		return p.fail(msg, "check message", err)
	}
	if exists {
		return domain.SkippedNotNetworking(domain.ReasonAlreadyProcessed)
	}

	if msg.ThreadID == "" {
		return domain.SkippedNotNetworking(domain.ReasonMissingThreadID)
	}

	status, err := p.store.GetThreadNetworkingStatus(ctx, msg.ThreadID, owner.UserID)
	if err != nil {
		return p.fail(msg, "load thread", err)
	}

	direction, counterparty := ResolveCounterparty(msg, owner.Email)
	if counterparty == "" {
		return domain.SkippedNotNetworking(domain.ReasonNoCounterparty)
	}

	switch {
	case status != nil && !*status:
		return domain.SkippedNotNetworking(domain.ReasonThreadNotNetworking)

	case status != nil && *status:
		summary := p.oracle.SummarizeEmail(ctx, msg.Subject, msg.BodyText)
		if summary == "" {
			return domain.SkippedNotNetworking(domain.ReasonEmptySummary)
		}
		return p.record(ctx, owner, threads, msg, direction, counterparty, summary)

	default:
		isNetworking, summary := p.oracle.ClassifyAndSummarize(ctx, msg.Subject, msg.BodyText)
		if !isNetworking {
			err := p.store.UpsertThread(ctx, domain.ThreadUpsert{
				ThreadID:     msg.ThreadID,
				UserID:       owner.UserID,
				Subject:      msg.Subject,
				MessageTS:    msg.InternalDate,
				IsNetworking: false,
			})
			if err != nil {
				return p.fail(msg, "upsert thread", err)
			}
			return domain.SkippedNotNetworking(domain.ReasonClassifiedNotNetwork)
		}
		return p.record(ctx, owner, threads, msg, direction, counterparty, summary)
	}
}

// record writes contact, thread and message rows for a networking message and
// then runs the follow-up checklist and meeting steps. Failures in the
// follow-up steps are logged; the message itself is already stored.
func (p *MessageProcessor) record(ctx context.Context, owner domain.Mailbox, threads ThreadFetcher, msg domain.MailMessage, direction domain.Direction, counterparty, summary string) domain.Result {
	if err := p.store.UpsertContact(ctx, owner.UserID, counterparty, msg.ContactName(counterparty), msg.InternalDate); err != nil {
		return p.fail(msg, "upsert contact", err)
	}

	err := p.store.UpsertThread(ctx, domain.ThreadUpsert{
		ThreadID:     msg.ThreadID,
		UserID:       owner.UserID,
		ContactEmail: counterparty,
		Subject:      msg.Subject,
		MessageTS:    msg.InternalDate,
		IsNetworking: true,
	})
	if err != nil {
		return p.fail(msg, "upsert thread", err)
	}

	err = p.store.InsertMessage(ctx, &domain.Message{
		GmailID:      msg.ID,
		UserID:       owner.UserID,
		ThreadID:     msg.ThreadID,
		ContactEmail: counterparty,
		Timestamp:    msg.InternalDate,
		Direction:    direction,
		Summary:      summary,
	})
	if err != nil {
		return p.fail(msg, "insert message", err)
	}

	if _, err := p.checklist.Recompute(ctx, counterparty, owner.UserID); err != nil {
		log.Printf("[Processor] Checklist recompute failed for %s (user %s): %v", counterparty, owner.UserID, err)
	}
	if _, err := p.meetings.Detect(ctx, threads, msg.ThreadID, counterparty, owner.UserID); err != nil {
		log.Printf("[Processor] Meeting detection failed for thread %s (user %s): %v", msg.ThreadID, owner.UserID, err)
	}

	return domain.Processed(direction, strings.ToLower(counterparty))
}

func (p *MessageProcessor) fail(msg domain.MailMessage, step string, err error) domain.Result {
	log.Printf("[Processor] Failed to process message %s: %s: %v", msg.ID, step, err)
	return domain.Failed(step, err)
}

// ResolveCounterparty picks the direction of msg and the first address on the
// other side that is not the owner. It returns "" when there is none.
func ResolveCounterparty(msg domain.MailMessage, ownerEmail string) (domain.Direction, string) {
	direction := domain.DirectionReceived
	candidates := msg.From
	if msg.HasLabel(domain.LabelSent) {
		direction = domain.DirectionSent
		candidates = msg.To
	}

	owner := strings.ToLower(strings.TrimSpace(ownerEmail))
	for _, a := range candidates {
		email := strings.TrimSpace(a.Email)
		if email == "" || strings.ToLower(email) == owner {
			continue
		}
		return direction, email
	}
	return direction, ""
}

