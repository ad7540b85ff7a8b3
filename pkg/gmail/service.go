package gmail

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/abbywylie/Ripple/internal/networking/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// maxConcurrentFetches bounds parallel messages.get calls per list
const maxConcurrentFetches = 5

// TokenUpdateFunc is called with a refreshed token so it can be persisted
type TokenUpdateFunc func(token *oauth2.Token) error

type Service struct {
	clientID     string
	clientSecret string
	redirectURL  string
	oauthURL     oauth2.Endpoint
	endpoint     []option.ClientOption
}

type notifyTokenSource struct {
	mu       sync.Mutex
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, redirectURL string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		oauthURL:     google.Endpoint,
	}
}

// WithOAuthEndpoint replaces Google's OAuth endpoint
func (s *Service) WithOAuthEndpoint(endpoint oauth2.Endpoint) *Service {
	s.oauthURL = endpoint
	return s
}

// WithClientOptions adds options to every Gmail API client, e.g. a test endpoint
func (s *Service) WithClientOptions(opts ...option.ClientOption) *Service {
	s.endpoint = append(s.endpoint, opts...)
	return s
}

// OAuthConfig is the read-only Gmail consent configuration
func (s *Service) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURL,
		Endpoint:     s.oauthURL,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
}

// Configured reports whether OAuth client credentials are set
func (s *Service) Configured() bool {
	return s.clientID != "" && s.clientSecret != ""
}

// AuthCodeURL builds the consent URL. Offline access with a forced consent
// prompt makes Google return a refresh token every time.
func (s *Service) AuthCodeURL(state string) string {
	return s.OAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.OAuthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange authorization code: %v", err)
	}
	return token, nil
}

// GetGmailService creates a Gmail API client for token. onTokenRefresh is
// called whenever the access token is refreshed.
func (s *Service) GetGmailService(ctx context.Context, token *oauth2.Token, onTokenRefresh TokenUpdateFunc) (*gmail.Service, error) {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return nil, fmt.Errorf("missing OAuth token")
	}

	wrappedSource := &notifyTokenSource{
		src:      s.OAuthConfig().TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, s.endpoint...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// ProfileEmail returns the address of the authenticated mailbox
func ProfileEmail(ctx context.Context, srv *gmail.Service) (string, error) {
	profile, err := srv.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to get Gmail profile: %v", err)
	}
	return strings.ToLower(profile.EmailAddress), nil
}

// Watch sets up push notifications for the user's inbox and returns the
// starting history id
func Watch(ctx context.Context, srv *gmail.Service, topicName string) (uint64, error) {
	// Only one push client is allowed per mailbox, so clear any previous watch
	_ = srv.Users.Stop("me").Context(ctx).Do()

	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX", domain.LabelSent},
	}

	resp, err := srv.Users.Watch("me", req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to watch mailbox: %v", err)
	}
	log.Printf("[Gmail] Watch started on %s, expiration %d, historyId %d", topicName, resp.Expiration, resp.HistoryId)
	return resp.HistoryId, nil
}

// Stop stops push notifications for the user's mailbox
func Stop(ctx context.Context, srv *gmail.Service) error {
	if err := srv.Users.Stop("me").Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}
	return nil
}

// Client reads one user's mailbox
type Client struct {
	srv        *gmail.Service
	ownerEmail string
}

func NewClient(srv *gmail.Service, ownerEmail string) *Client {
	return &Client{srv: srv, ownerEmail: ownerEmail}
}

// FetchRecentMessages lists up to max messages matching labelIDs and query,
// newest first, and fetches each in full. Messages that cannot be fetched are
// skipped.
func (c *Client) FetchRecentMessages(ctx context.Context, labelIDs []string, query string, max int64) ([]domain.MailMessage, error) {
	call := c.srv.Users.Messages.List("me").Context(ctx).MaxResults(max)
	if len(labelIDs) > 0 {
		call = call.LabelIds(labelIDs...)
	}
	if query != "" {
		call = call.Q(query)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %v", err)
	}
	if len(resp.Messages) == 0 {
		return []domain.MailMessage{}, nil
	}

	// fetch in parallel, keeping list order
	results := make([]*domain.MailMessage, len(resp.Messages))
	semaphore := make(chan struct{}, maxConcurrentFetches)
	var wg sync.WaitGroup

	for i, ref := range resp.Messages {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			full, err := c.srv.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
			if err != nil {
				log.Printf("[Gmail] Failed to fetch message %s: %v", id, err)
				return
			}
			m := ToMailMessage(full)
			results[i] = &m
		}(i, ref.Id)
	}
	wg.Wait()

	messages := make([]domain.MailMessage, 0, len(results))
	for _, m := range results {
		if m != nil {
			messages = append(messages, *m)
		}
	}
	return messages, nil
}

// FetchThread returns the full thread as cleaned turns, oldest first
func (c *Client) FetchThread(ctx context.Context, threadID string) ([]domain.ThreadTurn, error) {
	if threadID == "" {
		return []domain.ThreadTurn{}, nil
	}

	thread, err := c.srv.Users.Threads.Get("me", threadID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to fetch thread %s: %v", threadID, err)
	}
	return ToThreadTurns(thread, c.ownerEmail), nil
}
