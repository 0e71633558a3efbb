package clerk

import "encoding/json"

// ClerkWebhookEvent is the envelope Clerk posts to the webhook endpoint.
type ClerkWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ClerkUserData is the subset of the Clerk user object the webhook needs.
type ClerkUserData struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PublicMetadata struct {
		University string `json:"university"`
		Gender     string `json:"gender"`
	} `json:"public_metadata"`
}
