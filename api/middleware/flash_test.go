package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/rpg-market/api/responses"
	"github.com/angelmondragon/rpg-market/pkg/enums"
	"github.com/angelmondragon/rpg-market/pkg/types"
	"github.com/redis/go-redis/v9"
)

type mapFlashStore map[string]string

func (m mapFlashStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m[key] = value.(string)
	return nil
}

func (m mapFlashStore) GetDel(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", redis.Nil
	}
	delete(m, key)
	return v, nil
}

func (m mapFlashStore) FlashKey(id string) string { return "flash:" + id }

func TestFlashPopsOnNextPage(t *testing.T) {
	store := mapFlashStore{}
	post := httptest.NewRecorder()
	if err := responses.SaveFlash(context.Background(), store, post, types.Flash{Kind: enums.FlashSuccess, Message: "Bid placed"}); err != nil {
		t.Fatalf("save flash: %v", err)
	}
	cookie := post.Result().Cookies()[0]

	var seen *types.Flash
	handler := Flash(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = responses.FlashFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/item/x", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen == nil || seen.Message != "Bid placed" {
		t.Fatalf("expected flash, got %+v", seen)
	}

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/item/x", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != nil {
		t.Fatalf("flash must be shown once, got %+v", seen)
	}
}
