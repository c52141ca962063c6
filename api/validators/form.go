package validators

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/shopspring/decimal"
)

const maxFormMemory = 8 << 20

// IsForm reports whether the request carries an urlencoded or multipart body.
func IsForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// ParseForm parses either form encoding.
func ParseForm(r *http.Request) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidArgument, err, "invalid form body")
	}
	return nil
}

// Validate runs the struct tags of dest through the shared validator.
func Validate(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// FormDecimal reads a gold amount from a parsed form. Both "1.5" and "1,5"
// are accepted. A blank field yields nil.
func FormDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "must be a number").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// FormInt reads an integer field; blank yields defaultVal.
func FormInt(r *http.Request, key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidArgument, "must be an integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// FormTime reads an RFC 3339 timestamp or an HTML datetime-local value (read
// as UTC). Blank yields nil.
func FormTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "must be a timestamp").WithDetails(map[string]any{"field": key})
}

// FormList splits a comma or newline separated field, dropping blanks.
func FormList(r *http.Request, key string) []string {
	raw := r.FormValue(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(c rune) bool { return c == ',' || c == '\n' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
