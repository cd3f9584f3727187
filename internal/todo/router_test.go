package todo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestRouter(store *fakeStore, translator *stubTranslator) *Router {
	service := NewService(store, translator, zerolog.Nop())
	return NewRouter(service, zerolog.Nop())
}

func bodyJSON(t *testing.T, resp Response) map[string]any {
	t.Helper()
	raw, err := json.Marshal(resp.Body)
	if err != nil {
		t.Fatalf("marshal response body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal response body %s: %v", raw, err)
	}
	return out
}

func assertMessage(t *testing.T, resp Response, status int, message string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("unexpected status: got %d want %d (body %+v)", resp.StatusCode, status, resp.Body)
	}
	if got := bodyJSON(t, resp)["message"]; got != message {
		t.Fatalf("unexpected message: got %v want %q", got, message)
	}
}

func TestDispatchCreateAppliesDefaults(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := newTestRouter(store, &stubTranslator{})

	resp := router.Dispatch(context.Background(), Request{
		Method:   http.MethodPost,
		Resource: ResourceItems,
		Body:     `{"ownerKey":"u1","itemId":"a","description":"Buy milk"}`,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusCreated)
	}

	body := bodyJSON(t, resp)
	if body["message"] != "Todo item created" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	want := map[string]any{
		"ownerKey":     "u1",
		"itemId":       "a",
		"description":  "Buy milk",
		"status":       "pending",
		"priority":     float64(1),
		"completed":    false,
		"translations": map[string]any{},
	}
	if !reflect.DeepEqual(body["item"], want) {
		t.Fatalf("unexpected item: got %v want %v", body["item"], want)
	}
}

func TestDispatchCreateOverwritesExistingItem(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	router := newTestRouter(store, &stubTranslator{})

	first := `{"ownerKey":"u1","itemId":"a","description":"Buy milk","status":"done","priority":5}`
	second := `{"ownerKey":"u1","itemId":"a","description":"Buy bread"}`
	for _, raw := range []string{first, second} {
		resp := router.Dispatch(context.Background(), Request{Method: http.MethodPost, Resource: ResourceItems, Body: raw})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusCreated)
		}
	}

	got, ok := store.item("u1", "a")
	if !ok {
		t.Fatalf("expected stored item")
	}
	want := NewItem("u1", "a", "Buy bread", "", 0)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected stored item: got %+v want %+v", got, want)
	}
}

func TestDispatchCreateRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	cases := []string{
		``,
		`{"ownerKey":"u1"`,
		`{"ownerKey":"u1"}`,
		`{"ownerKey":"","itemId":"a"}`,
		`{"ownerKey":"u1","itemId":"a","priority":"high"}`,
		`[1,2]`,
	}
	for _, raw := range cases {
		store := newFakeStore()
		router := newTestRouter(store, &stubTranslator{})
		resp := router.Dispatch(context.Background(), Request{Method: http.MethodPost, Resource: ResourceItems, Body: raw})
		assertMessage(t, resp, http.StatusBadRequest, "Invalid request body")
		if store.callCount() != 0 {
			t.Fatalf("body %q: store should not be touched, got %d calls", raw, store.callCount())
		}
	}
}

func TestDispatchListFiltersByExactStatus(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		NewItem("u1", "a", "one", "pending", 1),
		NewItem("u1", "b", "two", "done", 1),
		NewItem("u1", "c", "three", "Done", 1),
		NewItem("u2", "d", "other owner", "done", 1),
	)
	router := newTestRouter(store, &stubTranslator{})

	list := func(status string) []string {
		query := map[string]string{}
		if status != "" {
			query["status"] = status
		}
		resp := router.Dispatch(context.Background(), Request{
			Method:      http.MethodGet,
			Resource:    ResourceOwner,
			PathParams:  map[string]string{"ownerKey": "u1"},
			QueryParams: query,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
		}
		items := resp.Body.(ListBody).Items
		ids := make([]string, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ItemID)
		}
		return ids
	}

	if got := list(""); strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected unfiltered ids: %v", got)
	}
	if got := list("done"); strings.Join(got, ",") != "b" {
		t.Fatalf("unexpected filtered ids: %v", got)
	}
}

func TestDispatchListEmptyOwnerReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeStore(), &stubTranslator{})
	resp := router.Dispatch(context.Background(), Request{
		Method:     http.MethodGet,
		Resource:   ResourceOwner,
		PathParams: map[string]string{"ownerKey": "nobody"},
	})

	raw, err := json.Marshal(resp.Body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"items":[]}` {
		t.Fatalf("unexpected body: got %s want %s", raw, `{"items":[]}`)
	}
}

func TestDispatchUpdateRejectsEmptyPatch(t *testing.T) {
	t.Parallel()

	original := NewItem("u1", "a", "Buy milk", "", 3)
	for _, raw := range []string{`{}`, `{"unknown":1}`, `{"priority":0,"description":""}`, `{"completed":null}`} {
		store := newFakeStore(original)
		router := newTestRouter(store, &stubTranslator{})
		resp := router.Dispatch(context.Background(), Request{
			Method:     http.MethodPut,
			Resource:   ResourceItem,
			PathParams: map[string]string{"ownerKey": "u1", "itemId": "a"},
			Body:       raw,
		})
		assertMessage(t, resp, http.StatusBadRequest, "No valid fields to update")

		got, _ := store.item("u1", "a")
		if !reflect.DeepEqual(got, original) {
			t.Fatalf("body %q changed stored item: got %+v", raw, got)
		}
		if store.callCount() != 0 {
			t.Fatalf("body %q: store should not be touched, got %d calls", raw, store.callCount())
		}
	}
}

func TestDispatchUpdateDropsFalsyFields(t *testing.T) {
	t.Parallel()

	item := NewItem("u1", "a", "Buy milk", "", 3)
	item.Completed = true
	store := newFakeStore(item)
	router := newTestRouter(store, &stubTranslator{})

	resp := router.Dispatch(context.Background(), Request{
		Method:     http.MethodPut,
		Resource:   ResourceItem,
		PathParams: map[string]string{"ownerKey": "u1", "itemId": "a"},
		Body:       `{"priority":0,"completed":false}`,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}

	updated := resp.Body.(ItemBody)
	if updated.Message != "Todo item updated" {
		t.Fatalf("unexpected message: %q", updated.Message)
	}
	if updated.Item.Priority != 3 {
		t.Fatalf("unexpected priority: got %d want 3", updated.Item.Priority)
	}
	if updated.Item.Completed {
		t.Fatalf("expected completed to be false")
	}
	if updated.Item.Description != "Buy milk" || updated.Item.Status != "pending" {
		t.Fatalf("unexpected untouched fields: %+v", updated.Item)
	}
}

func TestDispatchUpdateMissingItem(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeStore(), &stubTranslator{})
	resp := router.Dispatch(context.Background(), Request{
		Method:     http.MethodPut,
		Resource:   ResourceItem,
		PathParams: map[string]string{"ownerKey": "u1", "itemId": "missing"},
		Body:       `{"status":"done"}`,
	})
	assertMessage(t, resp, http.StatusNotFound, "Todo item not found")
}

func translationRequest(ownerKey, itemID, lang string) Request {
	query := map[string]string{}
	if lang != "" {
		query["language"] = lang
	}
	return Request{
		Method:      http.MethodGet,
		Resource:    ResourceTranslation,
		PathParams:  map[string]string{"ownerKey": ownerKey, "itemId": itemID},
		QueryParams: query,
	}
}

func TestDispatchTranslateCacheHit(t *testing.T) {
	t.Parallel()

	item := NewItem("u1", "a", "Hello", "", 0)
	item.Translations["fr"] = "Bonjour"
	translator := &stubTranslator{text: "Salut"}
	router := newTestRouter(newFakeStore(item), translator)

	resp := router.Dispatch(context.Background(), translationRequest("u1", "a", "fr"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", resp.StatusCode, http.StatusOK)
	}
	want := map[string]any{"translatedDescription": "Bonjour", "cached": true}
	if got := bodyJSON(t, resp); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected body: got %v want %v", got, want)
	}
	if translator.callCount() != 0 {
		t.Fatalf("provider should not be called on a cache hit, got %d calls", translator.callCount())
	}
}

func TestDispatchTranslateMissThenHit(t *testing.T) {
	t.Parallel()

	store := newFakeStore(NewItem("u1", "a", "Hello", "", 0))
	translator := &stubTranslator{text: "Hallo"}
	router := newTestRouter(store, translator)

	first := router.Dispatch(context.Background(), translationRequest("u1", "a", "de"))
	if got := bodyJSON(t, first); !reflect.DeepEqual(got, map[string]any{"translatedDescription": "Hallo", "cached": false}) {
		t.Fatalf("unexpected first body: %v", got)
	}

	second := router.Dispatch(context.Background(), translationRequest("u1", "a", "de"))
	if got := bodyJSON(t, second); !reflect.DeepEqual(got, map[string]any{"translatedDescription": "Hallo", "cached": true}) {
		t.Fatalf("unexpected second body: %v", got)
	}

	if translator.callCount() != 1 {
		t.Fatalf("unexpected provider calls: got %d want 1", translator.callCount())
	}
	req := translator.requests[0]
	if req.Text != "Hello" || req.SourceLang != "auto" || req.TargetLang != "de" {
		t.Fatalf("unexpected provider request: %+v", req)
	}
	stored, _ := store.item("u1", "a")
	if stored.Translations["de"] != "Hallo" {
		t.Fatalf("translation not stored: %+v", stored.Translations)
	}
}

func TestDispatchTranslateMissingItem(t *testing.T) {
	t.Parallel()

	translator := &stubTranslator{text: "Hallo"}
	router := newTestRouter(newFakeStore(), translator)

	resp := router.Dispatch(context.Background(), translationRequest("u1", "nope", "de"))
	assertMessage(t, resp, http.StatusNotFound, "Todo item not found")
	if translator.callCount() != 0 {
		t.Fatalf("provider should not be called, got %d calls", translator.callCount())
	}
}

func TestDispatchTranslateRequiresLanguage(t *testing.T) {
	t.Parallel()

	store := newFakeStore(NewItem("u1", "a", "Hello", "", 0))
	router := newTestRouter(store, &stubTranslator{text: "x"})

	for _, lang := range []string{"", "   "} {
		resp := router.Dispatch(context.Background(), translationRequest("u1", "a", lang))
		assertMessage(t, resp, http.StatusBadRequest, "Target language query parameter is required")
	}
	if store.callCount() != 0 {
		t.Fatalf("store should not be touched, got %d calls", store.callCount())
	}
}

func TestDispatchTranslateProviderFailureIsInternal(t *testing.T) {
	t.Parallel()

	store := newFakeStore(NewItem("u1", "a", "Hello", "", 0))
	router := newTestRouter(store, &stubTranslator{err: errors.New("throttled")})

	resp := router.Dispatch(context.Background(), translationRequest("u1", "a", "de"))
	assertMessage(t, resp, http.StatusInternalServerError, "Internal server error")
	if got := bodyJSON(t, resp)["error"].(string); !strings.Contains(got, "throttled") {
		t.Fatalf("unexpected error text: %q", got)
	}
	stored, _ := store.item("u1", "a")
	if len(stored.Translations) != 0 {
		t.Fatalf("failed translation must not be cached: %+v", stored.Translations)
	}
}

func TestDispatchTranslateStoreWriteFailureIsInternal(t *testing.T) {
	t.Parallel()

	store := newFakeStore(NewItem("u1", "a", "Hello", "", 0))
	store.setErr = errors.New("write failed")
	router := newTestRouter(store, &stubTranslator{text: "Hallo"})

	resp := router.Dispatch(context.Background(), translationRequest("u1", "a", "de"))
	assertMessage(t, resp, http.StatusInternalServerError, "Internal server error")
}

func TestDispatchUnsupportedRoute(t *testing.T) {
	t.Parallel()

	router := newTestRouter(newFakeStore(), &stubTranslator{})
	cases := []Request{
		{Method: http.MethodDelete, Resource: ResourceItem},
		{Method: http.MethodGet, Resource: ResourceItems},
		{Method: http.MethodPost, Resource: ResourceOwner},
		{Method: http.MethodGet, Resource: "/health"},
		{Method: "", Resource: ""},
	}
	for _, req := range cases {
		resp := router.Dispatch(context.Background(), req)
		assertMessage(t, resp, http.StatusBadRequest, "Unsupported route or method")
	}
}

type panicStore struct {
	*fakeStore
}

func (panicStore) QueryItems(context.Context, string) ([]Item, error) {
	panic("boom")
}

func TestDispatchRecoversPanics(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewService(panicStore{newFakeStore()}, &stubTranslator{}, zerolog.Nop()), zerolog.Nop())
	resp := router.Dispatch(context.Background(), Request{
		Method:     http.MethodGet,
		Resource:   ResourceOwner,
		PathParams: map[string]string{"ownerKey": "u1"},
	})
	assertMessage(t, resp, http.StatusInternalServerError, "Internal server error")
}

func TestRoutesMarkKeyRequiredWrites(t *testing.T) {
	t.Parallel()

	for _, route := range Routes() {
		wantKey := route.Method == http.MethodPost || route.Method == http.MethodPut
		if route.KeyRequired != wantKey {
			t.Fatalf("unexpected key requirement for %s %s: got %v", route.Method, route.Resource, route.KeyRequired)
		}
	}
}
