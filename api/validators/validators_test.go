package validators

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
)

type bidBody struct {
	Amount string `json:"amount" validate:"required"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"10","extra":true}`))
	var body bidBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	var body bidBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["amount"] != "is required" {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
}

func TestFormHelpers(t *testing.T) {
	form := url.Values{
		"amount":           {"12,50"},
		"days":             {"5"},
		"auction_end_at":   {"2026-05-01T18:30"},
		"magic_properties": {"Fire resistance, +2 STR\n\nGlows"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if !IsForm(req) {
		t.Fatalf("expected form request")
	}
	if err := ParseForm(req); err != nil {
		t.Fatalf("parse: %v", err)
	}

	amount, err := FormDecimal(req, "amount")
	if err != nil || amount == nil || amount.StringFixed(2) != "12.50" {
		t.Fatalf("amount = %v, %v", amount, err)
	}
	if missing, err := FormDecimal(req, "price"); err != nil || missing != nil {
		t.Fatalf("blank decimal should be nil, got %v %v", missing, err)
	}
	days, err := FormInt(req, "days", 7)
	if err != nil || days != 5 {
		t.Fatalf("days = %d, %v", days, err)
	}
	end, err := FormTime(req, "auction_end_at")
	if err != nil || end == nil || end.Hour() != 18 {
		t.Fatalf("end = %v, %v", end, err)
	}
	props := FormList(req, "magic_properties")
	if len(props) != 3 || props[1] != "+2 STR" {
		t.Fatalf("unexpected properties %#v", props)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?periodo=400&limite=abc", nil)
	if _, err := ParseQueryInt(req, "periodo", 7, 1, 365); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	if _, err := ParseQueryInt(req, "limite", 10, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidArgument) {
		t.Fatalf("expected numeric error, got %v", err)
	}
	v, err := ParseQueryInt(req, "page", 1, 1, 1000)
	if err != nil || v != 1 {
		t.Fatalf("default = %d, %v", v, err)
	}
}

func TestSanitizeStringKeepsWholeCharacters(t *testing.T) {
	got := SanitizeString(strings.Repeat("a", 99)+"é", 100)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf-8, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Fatalf("expected 100 characters, got %d", n)
	}

	got = SanitizeString("  espada flamejante  ", 7)
	if got != "espada" {
		t.Fatalf("expected truncated trimmed keyword, got %q", got)
	}

	got = SanitizeString(strings.Repeat("á", 5), 3)
	if got != "ááá" {
		t.Fatalf("expected three characters, got %q", got)
	}
}

func TestSanitizeStringDropsInvalidBytes(t *testing.T) {
	got := SanitizeString("cura\xc3", 50)
	if got != "cura" {
		t.Fatalf("expected invalid byte removed, got %q", got)
	}
	if got := SanitizeString(" elixir ", 0); got != "elixir" {
		t.Fatalf("expected trim only without a limit, got %q", got)
	}
}
