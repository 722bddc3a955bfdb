package models

import "time"

// TranslationRequest is one user-triggered unit of work.
type TranslationRequest struct {
	ID         string    `json:"id"`
	Expression string    `json:"expression"`
	Settings   Settings  `json:"settings"`
	CreatedAt  time.Time `json:"created_at"`
}

// TranslateResponse is the translation service's success body.
type TranslateResponse struct {
	Result *string `json:"result"`
}

// TriggerRequest is the body accepted by the local trigger endpoint.
// An empty expression means "read the clipboard".
type TriggerRequest struct {
	Expression string `json:"expression,omitempty"`
}
