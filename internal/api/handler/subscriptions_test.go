package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondendo89/Prezzibenzina/internal/api/handler"
	"github.com/dondendo89/Prezzibenzina/internal/api/models"
	"github.com/dondendo89/Prezzibenzina/internal/push"
)

type mockSubscriptionRepo struct {
	subs map[string]*push.Subscription
	err  error
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{subs: make(map[string]*push.Subscription)}
}

func (m *mockSubscriptionRepo) Upsert(_ context.Context, s *push.Subscription) error {
	if m.err != nil {
		return m.err
	}
	m.subs[s.Endpoint] = s
	return nil
}

func (m *mockSubscriptionRepo) GetAll(_ context.Context) ([]*push.Subscription, error) {
	all := make([]*push.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		all = append(all, s)
	}
	return all, m.err
}

func (m *mockSubscriptionRepo) Count(_ context.Context) (int, error) {
	return len(m.subs), m.err
}

func (m *mockSubscriptionRepo) Delete(_ context.Context, endpoint string) error {
	delete(m.subs, endpoint)
	return m.err
}

const validSubscribeBody = `{
	"subscription": {
		"endpoint": "https://fcm.googleapis.com/fcm/send/abc",
		"keys": {"p256dh": "key-material", "auth": "auth-secret"}
	}
}`

func TestSubscribe(t *testing.T) {
	repo := newMockSubscriptionRepo()
	h := handler.NewSubscriptionHandler(repo, zerolog.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(validSubscribeBody))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.SubscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)

	stored := repo.subs["https://fcm.googleapis.com/fcm/send/abc"]
	require.NotNil(t, stored)
	assert.Equal(t, "key-material", stored.Keys.P256dh)
	assert.Equal(t, "auth-secret", stored.Keys.Auth)
	assert.Nil(t, stored.Filters)
}

func TestSubscribe_WithFilters(t *testing.T) {
	repo := newMockSubscriptionRepo()
	h := handler.NewSubscriptionHandler(repo, zerolog.New(io.Discard))

	body := `{
		"subscription": {
			"endpoint": "https://push.example/sub",
			"keys": {"p256dh": "k", "auth": "a"}
		},
		"filters": {"station_id": "001"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	stored := repo.subs["https://push.example/sub"]
	require.NotNil(t, stored)
	require.NotNil(t, stored.Filters)
	assert.Equal(t, "001", stored.Filters.StationID)
}

func TestSubscribe_ReplacesExistingEndpoint(t *testing.T) {
	repo := newMockSubscriptionRepo()
	h := handler.NewSubscriptionHandler(repo, zerolog.New(io.Discard))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(validSubscribeBody))
		rec := httptest.NewRecorder()
		h.Subscribe(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	assert.Len(t, repo.subs, 1)
}

func TestSubscribe_MissingFields(t *testing.T) {
	h := handler.NewSubscriptionHandler(newMockSubscriptionRepo(), zerolog.New(io.Discard))

	body := `{"subscription": {"endpoint": "", "keys": {"p256dh": "", "auth": ""}}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "subscription.endpoint")
	assert.Contains(t, rec.Body.String(), "subscription.keys.p256dh")
	assert.Contains(t, rec.Body.String(), "subscription.keys.auth")
}

func TestSubscribe_InvalidJSON(t *testing.T) {
	h := handler.NewSubscriptionHandler(newMockSubscriptionRepo(), zerolog.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Subscribe(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionCount(t *testing.T) {
	repo := newMockSubscriptionRepo()
	repo.subs["a"] = &push.Subscription{Endpoint: "a"}
	repo.subs["b"] = &push.Subscription{Endpoint: "b"}
	h := handler.NewSubscriptionHandler(repo, zerolog.New(io.Discard))

	req := httptest.NewRequest(http.MethodGet, "/v1/subscriptions/count", http.NoBody)
	rec := httptest.NewRecorder()
	h.Count(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var count models.SubscriptionCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &count))
	assert.Equal(t, 2, count.Count)
}
