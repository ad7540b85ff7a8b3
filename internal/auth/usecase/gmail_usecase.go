package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	authdomain "github.com/abbywylie/Ripple/internal/auth/domain"
	"github.com/abbywylie/Ripple/internal/auth/repository"
	netdomain "github.com/abbywylie/Ripple/internal/networking/domain"
	netusecase "github.com/abbywylie/Ripple/internal/networking/usecase"
	gmailpkg "github.com/abbywylie/Ripple/pkg/gmail"
	"github.com/abbywylie/Ripple/pkg/tokencrypt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"gorm.io/datatypes"
)

const stateTTL = 10 * time.Minute

// GmailUsecase links Gmail accounts to Ripple users and opens their mailboxes.
// It is the MailboxConnector of the sync pipeline.
type GmailUsecase struct {
	tokens repository.GmailTokenRepository
	gmail  *gmailpkg.Service
	cipher *tokencrypt.Cipher
	now    func() time.Time
}

var _ netusecase.MailboxConnector = (*GmailUsecase)(nil)

func NewGmailUsecase(tokens repository.GmailTokenRepository, gmailService *gmailpkg.Service, cipher *tokencrypt.Cipher) *GmailUsecase {
	if cipher == nil {
		cipher = tokencrypt.New("")
	}
	return &GmailUsecase{
		tokens: tokens,
		gmail:  gmailService,
		cipher: cipher,
		now:    time.Now,
	}
}

// AuthorizationURL starts the consent flow for userID
func (u *GmailUsecase) AuthorizationURL(ctx context.Context, userID string) (string, error) {
	if !u.gmail.Configured() {
		return "", authdomain.ErrNotConfigured
	}

	state := &authdomain.OAuthState{
		State:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: u.now().Add(stateTTL),
	}
	if err := u.tokens.SaveState(ctx, state); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return u.gmail.AuthCodeURL(state.State), nil
}

// HandleCallback finishes the consent flow and stores the grant
func (u *GmailUsecase) HandleCallback(ctx context.Context, code, state string) (*authdomain.GmailToken, error) {
	if code == "" || state == "" {
		return nil, authdomain.ErrInvalidState
	}

	pending, err := u.tokens.ConsumeState(ctx, state, u.now())
	if err != nil {
		return nil, fmt.Errorf("load oauth state: %w", err)
	}
	if pending == nil {
		return nil, authdomain.ErrInvalidState
	}

	token, err := u.gmail.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	srv, err := u.gmail.GetGmailService(ctx, token, nil)
	if err != nil {
		return nil, err
	}
	email, err := gmailpkg.ProfileEmail(ctx, srv)
	if err != nil {
		return nil, err
	}
	if !netdomain.IsGmailAddress(email) {
		return nil, authdomain.ErrNotGmailAddress
	}

	record, err := u.sealToken(token)
	if err != nil {
		return nil, err
	}
	record.UserID = pending.UserID
	record.GmailEmail = email
	record.ConnectedAt = u.now().UTC()

	scopes, _ := json.Marshal(u.gmail.OAuthConfig().Scopes)
	record.Scopes = datatypes.JSON(scopes)

	if err := u.tokens.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save gmail token: %w", err)
	}
	log.Printf("[GmailOAuth] Connected %s for user %s", email, pending.UserID)
	return record, nil
}

// Disconnect stops any push watch and forgets the user's grant
func (u *GmailUsecase) Disconnect(ctx context.Context, userID string) error {
	record, err := u.tokens.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if record == nil {
		return netdomain.ErrNotConnected
	}

	if srv, err := u.service(ctx, record); err == nil {
		if err := gmailpkg.Stop(ctx, srv); err != nil {
			log.Printf("[GmailOAuth] Stop watch for user %s: %v", userID, err)
		}
	}
	return u.tokens.Delete(ctx, userID)
}

// Watch registers Gmail push notifications on topicName for the user
func (u *GmailUsecase) Watch(ctx context.Context, userID, topicName string) (uint64, error) {
	record, err := u.tokens.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if record == nil {
		return 0, netdomain.ErrNotConnected
	}

	srv, err := u.service(ctx, record)
	if err != nil {
		return 0, err
	}
	historyID, err := gmailpkg.Watch(ctx, srv, topicName)
	if err != nil {
		return 0, err
	}
	if err := u.tokens.UpdateHistoryID(ctx, userID, historyID); err != nil {
		log.Printf("[GmailOAuth] Save history id for user %s: %v", userID, err)
	}
	return historyID, nil
}

// UserIDForGmail resolves a linked Gmail address to its Ripple user
func (u *GmailUsecase) UserIDForGmail(ctx context.Context, email string) (string, error) {
	record, err := u.tokens.FindByGmailEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", netdomain.ErrNotConnected
	}
	return record.UserID, nil
}

func (u *GmailUsecase) OpenMailbox(ctx context.Context, userID string) (netdomain.Mailbox, netusecase.MailSource, error) {
	record, err := u.tokens.FindByUserID(ctx, userID)
	if err != nil {
		return netdomain.Mailbox{}, nil, err
	}
	if record == nil {
		return netdomain.Mailbox{}, nil, netdomain.ErrNotConnected
	}

	srv, err := u.service(ctx, record)
	if err != nil {
		return netdomain.Mailbox{}, nil, err
	}
	mailbox := netdomain.Mailbox{UserID: userID, Email: record.GmailEmail}
	return mailbox, gmailpkg.NewClient(srv, record.GmailEmail), nil
}

func (u *GmailUsecase) Connection(ctx context.Context, userID string) (*netdomain.Connection, error) {
	record, err := u.tokens.FindByUserID(ctx, userID)
	if err != nil || record == nil {
		return nil, err
	}
	return toConnection(record), nil
}

func (u *GmailUsecase) ListConnected(ctx context.Context) ([]netdomain.Connection, error) {
	records, err := u.tokens.ListConnected(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]netdomain.Connection, 0, len(records))
	for i := range records {
		out = append(out, *toConnection(&records[i]))
	}
	return out, nil
}

func (u *GmailUsecase) MarkSynced(ctx context.Context, userID string, at time.Time) error {
	return u.tokens.MarkSynced(ctx, userID, at)
}

func toConnection(record *authdomain.GmailToken) *netdomain.Connection {
	return &netdomain.Connection{
		UserID:      record.UserID,
		GmailEmail:  record.GmailEmail,
		ConnectedAt: record.ConnectedAt,
		LastSyncAt:  record.LastSyncAt,
	}
}

// service builds a Gmail client whose refreshed tokens are written back
func (u *GmailUsecase) service(ctx context.Context, record *authdomain.GmailToken) (*gmail.Service, error) {
	token, err := u.openToken(record)
	if err != nil {
		return nil, err
	}

	userID := record.UserID
	onRefresh := func(t *oauth2.Token) error {
		sealed, err := u.sealToken(t)
		if err != nil {
			return err
		}
		// the request context may be gone by the time a refresh happens
		return u.tokens.UpdateAccessToken(context.Background(), userID,
			sealed.AccessToken, sealed.RefreshToken, sealed.TokenType, sealed.Expiry)
	}
	return u.gmail.GetGmailService(ctx, token, onRefresh)
}

func (u *GmailUsecase) sealToken(t *oauth2.Token) (*authdomain.GmailToken, error) {
	access, err := u.cipher.Encrypt(t.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := u.cipher.Encrypt(t.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt refresh token: %w", err)
	}

	record := &authdomain.GmailToken{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    t.TokenType,
	}
	if !t.Expiry.IsZero() {
		expiry := t.Expiry.UTC()
		record.Expiry = &expiry
	}
	return record, nil
}

func (u *GmailUsecase) openToken(record *authdomain.GmailToken) (*oauth2.Token, error) {
	access, err := u.cipher.Decrypt(record.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	refresh, err := u.cipher.Decrypt(record.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    strings.TrimSpace(record.TokenType),
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	if record.Expiry != nil {
		token.Expiry = *record.Expiry
	} else if refresh != "" {
		// unknown expiry: refresh before first use
		token.Expiry = time.Now()
	}
	return token, nil
}
