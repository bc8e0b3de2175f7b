package chatbots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chatforge/backend/internal/auth"
	"github.com/chatforge/backend/internal/db"
)

type fakeStore struct {
	bot     *db.Chatbot
	deleted []int64
}

func (f *fakeStore) Create(ctx context.Context, bot *db.Chatbot) error {
	bot.ID = 5
	f.bot = bot
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*db.Chatbot, error) {
	if f.bot == nil || f.bot.ID != id {
		return nil, db.ErrChatbotNotFound
	}
	return f.bot, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, name, kind *string, settings json.RawMessage) (*db.Chatbot, error) {
	if f.bot == nil || f.bot.ID != id {
		return nil, db.ErrChatbotNotFound
	}
	if name != nil {
		f.bot.Name = *name
	}
	if kind != nil {
		f.bot.Kind = *kind
	}
	if settings != nil {
		f.bot.Settings = settings
	}
	return f.bot, nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if f.bot == nil || f.bot.ID != id {
		return db.ErrChatbotNotFound
	}
	f.deleted = append(f.deleted, id)
	f.bot = nil
	return nil
}

type fakeCache struct {
	entries map[string]string
	sets    []string
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	value, ok := f.entries[key]
	return value, ok
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.entries[key] = value
	f.sets = append(f.sets, key)
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	f.deletes = append(f.deletes, key)
	return nil
}

func authedRequest(method, target, body string, userID int64) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(r.Context(), auth.UserContextKey, &auth.UserContext{UserID: userID, Email: "owner@example.com"})
	return r.WithContext(ctx)
}

func ownedBot(id, userID int64) *db.Chatbot {
	return &db.Chatbot{
		Record: db.Record{ID: id, Status: db.StatusActive},
		UserID: userID,
		Name:   "support bot",
		Kind:   "faq",
	}
}

func TestHandlers_UpdateInvalidatesCache(t *testing.T) {
	store := &fakeStore{bot: ownedBot(5, 1)}
	c := newFakeCache()
	c.entries[cacheKey(5)] = `{"id":5,"name":"support bot"}`
	h := NewHandlers(store, c)

	r := authedRequest(http.MethodPatch, "/api/v1/chatbots/5", `{"name":"renamed"}`, 1)
	r.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Update(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.bot.Name != "renamed" {
		t.Errorf("expected stored name %q, got %q", "renamed", store.bot.Name)
	}
	if len(c.deletes) != 1 || c.deletes[0] != cacheKey(5) {
		t.Errorf("expected the cache entry for the chatbot to be dropped, got deletes %v", c.deletes)
	}
	if _, ok := c.entries[cacheKey(5)]; ok {
		t.Error("stale cache entry still present after update")
	}
}

func TestHandlers_DeleteInvalidatesCache(t *testing.T) {
	store := &fakeStore{bot: ownedBot(5, 1)}
	c := newFakeCache()
	c.entries[cacheKey(5)] = `{"id":5}`
	h := NewHandlers(store, c)

	r := authedRequest(http.MethodDelete, "/api/v1/chatbots/5", "", 1)
	r.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Delete(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.deleted) != 1 || store.deleted[0] != 5 {
		t.Errorf("expected chatbot 5 deleted, got %v", store.deleted)
	}
	if len(c.deletes) != 1 || c.deletes[0] != cacheKey(5) {
		t.Errorf("expected the cache entry for the chatbot to be dropped, got deletes %v", c.deletes)
	}
}

func TestHandlers_UpdateByNonOwnerLeavesCache(t *testing.T) {
	store := &fakeStore{bot: ownedBot(5, 1)}
	c := newFakeCache()
	c.entries[cacheKey(5)] = `{"id":5}`
	h := NewHandlers(store, c)

	r := authedRequest(http.MethodPatch, "/api/v1/chatbots/5", `{"name":"hijack"}`, 2)
	r.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Update(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	if len(c.deletes) != 0 {
		t.Errorf("rejected update must not touch the cache, got deletes %v", c.deletes)
	}
	if store.bot.Name != "support bot" {
		t.Errorf("rejected update changed the stored chatbot: %q", store.bot.Name)
	}
}

func TestHandlers_GetServesFromCache(t *testing.T) {
	store := &fakeStore{bot: ownedBot(5, 1)}
	c := newFakeCache()
	h := NewHandlers(store, c)

	// First read misses and fills the cache
	r := authedRequest(http.MethodGet, "/api/v1/chatbots/5", "", 1)
	r.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Get(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Cache") == "HIT" {
		t.Error("first read must not be a cache hit")
	}
	if len(c.sets) != 1 || c.sets[0] != cacheKey(5) {
		t.Fatalf("expected the read to fill the cache, got sets %v", c.sets)
	}

	// Second read is served from cache
	r = authedRequest(http.MethodGet, "/api/v1/chatbots/5", "", 1)
	r.SetPathValue("id", "5")
	w = httptest.NewRecorder()
	h.Get(w, r)

	if w.Header().Get("X-Cache") != "HIT" {
		t.Error("second read should be served from cache")
	}

	var info ChatbotInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("cached body is not valid JSON: %v", err)
	}
	if info.ID != 5 || info.Name != "support bot" {
		t.Errorf("cached body mapped wrong: %+v", info)
	}
}
