package types

import "github.com/angelmondragon/rpg-market/pkg/enums"

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind    enums.FlashKind `json:"kind"`
	Message string          `json:"message"`
}

type SuccessEnvelope struct {
	Data     any    `json:"data"`
	Flash    *Flash `json:"flash,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error    APIError `json:"error"`
	Flash    *Flash   `json:"flash,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
}
