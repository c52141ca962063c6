package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/angelmondragon/rpg-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/angelmondragon/rpg-market/pkg/types"
	"github.com/google/uuid"
)

const (
	// FlashCookie carries the id of the pending flash between requests.
	FlashCookie = "rpg_flash"
	FlashTTL    = 5 * time.Minute
)

// FlashStore persists one-shot messages between a redirect and the next page.
type FlashStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	FlashKey(id string) string
}

type flashCtxKey struct{}

// WithFlash attaches a popped flash to the request context.
func WithFlash(ctx context.Context, flash *types.Flash) context.Context {
	if flash == nil {
		return ctx
	}
	return context.WithValue(ctx, flashCtxKey{}, flash)
}

func FlashFromContext(ctx context.Context) *types.Flash {
	if ctx == nil {
		return nil
	}
	flash, _ := ctx.Value(flashCtxKey{}).(*types.Flash)
	return flash
}

// SaveFlash stores the flash and points the client cookie at it.
func SaveFlash(ctx context.Context, store FlashStore, w http.ResponseWriter, flash types.Flash) error {
	if store == nil {
		return nil
	}
	payload, err := json.Marshal(flash)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	if err := store.Set(ctx, store.FlashKey(id), string(payload), FlashTTL); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(FlashTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// PopFlash reads and deletes the flash referenced by the request cookie. The
// store's own miss error is returned for an expired flash.
func PopFlash(ctx context.Context, store FlashStore, w http.ResponseWriter, r *http.Request) (*types.Flash, error) {
	if store == nil {
		return nil, nil
	}
	cookie, err := r.Cookie(FlashCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	http.SetCookie(w, &http.Cookie{Name: FlashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := store.GetDel(ctx, store.FlashKey(cookie.Value))
	if err != nil {
		return nil, err
	}
	var flash types.Flash
	if err := json.Unmarshal([]byte(raw), &flash); err != nil {
		return nil, nil
	}
	return &flash, nil
}

// Redirector answers mutating requests the way a form post would: the outcome
// becomes a flash for the next page and the body names where to go next.
type Redirector struct {
	Store  FlashStore
	Logger *logger.Logger
}

// Success writes data with a success flash and the follow-up location.
func (rd Redirector) Success(w http.ResponseWriter, r *http.Request, status int, location, message string, data any) {
	rd.Redirect(w, r, status, enums.FlashSuccess, location, message, data)
}

// Redirect writes data with a flash of the given kind.
func (rd Redirector) Redirect(w http.ResponseWriter, r *http.Request, status int, kind enums.FlashKind, location, message string, data any) {
	flash := types.Flash{Kind: kind, Message: message}
	rd.save(r.Context(), w, flash)
	writeJSON(w, status, types.SuccessEnvelope{Data: data, Flash: &flash, Redirect: location})
}

// Failure maps err onto the error policy. Codes that send the user back to the
// form carry an error flash and the form location; forbidden, missing and
// internal failures render as plain error responses.
func (rd Redirector) Failure(w http.ResponseWriter, r *http.Request, back string, err error) {
	typed := typedError(err)
	meta := pkgerrors.MetadataFor(typed.Code())
	if !meta.BackToForm {
		WriteError(r.Context(), rd.Logger, w, err)
		return
	}

	kind := enums.FlashError
	if typed.Code() == pkgerrors.CodeConflict || typed.Code() == pkgerrors.CodeRateLimit {
		kind = enums.FlashWarning
	}
	status := statusAndLog(r.Context(), rd.Logger, err)
	payload := errorEnvelope(err)
	flash := types.Flash{Kind: kind, Message: payload.Error.Message}
	rd.save(r.Context(), w, flash)
	payload.Flash = &flash
	payload.Redirect = back
	writeJSON(w, status, payload)
}

func (rd Redirector) save(ctx context.Context, w http.ResponseWriter, flash types.Flash) {
	if err := SaveFlash(ctx, rd.Store, w, flash); err != nil && rd.Logger != nil {
		rd.Logger.Error(ctx, "flash.save_failed", err)
	}
}
