package gmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(server.Client()),
		option.WithEndpoint(server.URL+"/"),
	)
	require.NoError(t, err)
	return NewClient(srv, "me@gmail.com")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_FetchRecentMessages(t *testing.T) {
	listQueries := make(chan string, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/messages"):
			listQueries <- r.URL.RawQuery
			writeJSON(w, map[string]interface{}{
				"messages": []map[string]string{{"id": "a"}, {"id": "broken"}, {"id": "b"}},
			})
		case strings.HasSuffix(r.URL.Path, "/users/me/messages/broken"):
			http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
		case strings.Contains(r.URL.Path, "/users/me/messages/"):
			id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			writeJSON(w, map[string]interface{}{
				"id":           id,
				"threadId":     "t-" + id,
				"labelIds":     []string{"INBOX"},
				"internalDate": "1700000000000",
				"payload": map[string]interface{}{
					"mimeType": "text/plain",
					"headers": []map[string]string{
						{"name": "From", "value": "Jane <jane@example.com>"},
						{"name": "Subject", "value": "Hello " + id},
					},
					"body": map[string]string{"data": enc("body " + id)},
				},
			})
		default:
			http.NotFound(w, r)
		}
	})

	msgs, err := client.FetchRecentMessages(context.Background(), []string{"INBOX"}, "category:primary", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].ID)
	assert.Equal(t, "b", msgs[1].ID)
	assert.Equal(t, "t-a", msgs[0].ThreadID)
	assert.Equal(t, "Hello b", msgs[1].Subject)
	assert.Equal(t, "body a", msgs[0].BodyText)
	assert.Equal(t, int64(1700000000000), msgs[0].InternalDate)

	listQuery := <-listQueries
	assert.Contains(t, listQuery, "labelIds=INBOX")
	assert.Contains(t, listQuery, "maxResults=10")
	assert.Contains(t, listQuery, "q=category%3Aprimary")
}

func TestClient_FetchRecentMessages_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"resultSizeEstimate": 0})
	})

	msgs, err := client.FetchRecentMessages(context.Background(), []string{"SENT"}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestClient_FetchThread(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/threads/t1"))
		writeJSON(w, map[string]interface{}{
			"id": "t1",
			"messages": []map[string]interface{}{
				{
					"internalDate": "2000",
					"payload": map[string]interface{}{
						"headers": []map[string]string{{"name": "From", "value": "jane@example.com"}},
						"body":    map[string]string{"data": enc("Confirmed, see you then")},
					},
				},
				{
					"internalDate": "1000",
					"payload": map[string]interface{}{
						"headers": []map[string]string{{"name": "From", "value": "me@gmail.com"}},
						"body":    map[string]string{"data": enc("Coffee Friday 10am?")},
					},
				},
			},
		})
	})

	turns, err := client.FetchThread(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "Coffee Friday 10am?", turns[0].BodyText)
	assert.Equal(t, "sent", string(turns[0].Direction))
	assert.Equal(t, "received", string(turns[1].Direction))
}

func TestClient_FetchThread_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	})

	_, err := client.FetchThread(context.Background(), "missing")
	assert.Error(t, err)
}

func TestService_AuthCodeURL(t *testing.T) {
	svc := NewService("client-id", "secret", "http://localhost:8080/api/gmail/oauth/callback")
	assert.True(t, svc.Configured())

	u := svc.AuthCodeURL("state-123")
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "prompt=consent")
	assert.Contains(t, u, "gmail.readonly")

	assert.False(t, NewService("", "", "").Configured())
}
