package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/session"
)

type stubAuth struct {
	user *domain.User
}

func (s stubAuth) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthGrant, error) {
	return &domain.AuthGrant{User: s.user, AccessToken: "tok"}, nil
}

func (s stubAuth) Logout(ctx context.Context, token string) error { return nil }

func (s stubAuth) GetCurrentUser(ctx context.Context, token string) (*domain.User, error) {
	return s.user, nil
}

func loggedIn(t *testing.T, user *domain.User) *session.Store {
	t.Helper()
	store := session.NewStore("client-"+user.ID, stubAuth{user: user}, session.NewMemoryTokenStore(), zap.NewNop())
	require.NoError(t, store.Restore(context.Background()))
	_, err := store.Login(context.Background(), domain.Credentials{Email: "x@shop.test", Password: "pw"})
	require.NoError(t, err)
	return store
}

func withStore(store *session.Store, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next(w, r.WithContext(session.NewContext(r.Context(), store)))
	})
}

func TestHandleRecent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	recent := NewRecent(hub, 5)
	hub.Publish(Event{Type: EventNotificationNew, ID: "n1", Data: json.RawMessage(`{"title":"Invoice paid","recipientId":"c1"}`)})
	hub.Publish(Event{Type: EventNotificationNew, ID: "n2", Data: json.RawMessage(`{"title":"Invoice paid","recipientId":"c2"}`)})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications/recent", nil)
	req = req.WithContext(session.NewContext(req.Context(), loggedIn(t, customer)))
	NewHandlers(hub, recent, zap.NewNop()).HandleRecent(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body recentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, "n1", body.Notifications[0].ID)
}

func TestHandleStream_RelaysAndUnsubscribes(t *testing.T) {
	hub := NewHub(zap.NewNop())
	h := NewHandlers(hub, NewRecent(hub, 5), zap.NewNop())
	srv := httptest.NewServer(withStore(loggedIn(t, customer), h.HandleStream))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// recent buffer plus the stream client
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)
	hub.Publish(Event{Type: EventNotificationNew, ID: "n8", Data: json.RawMessage(`{"title":"Not yours","recipientId":"c2"}`)})
	hub.Publish(Event{Type: EventNotificationNew, ID: "n9", Data: json.RawMessage(`{"title":"Ready","recipientId":"c1"}`)})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimRight(line, "\n"))
	}
	assert.Equal(t, []string{"id: n9", "event: notification:new", `data: {"title":"Ready","recipientId":"c1"}`}, lines)

	cancel()
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHandleStream_EndsAfterLogout(t *testing.T) {
	hub := NewHub(zap.NewNop())
	h := NewHandlers(hub, NewRecent(hub, 5), zap.NewNop())
	store := loggedIn(t, staff)
	srv := httptest.NewServer(withStore(store, h.HandleStream))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)

	store.Logout(context.Background())
	hub.Publish(Event{Type: EventNotificationNew, ID: "n1", Data: json.RawMessage(`{"title":"Stock low"}`)})

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, string(body))
	assert.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
}
