// Package gateway is the HTTP client for the Fluxora chat API.
//
// # Operations
//
//   - ListThreads: GET /threads
//   - CreateThread: POST /threads
//   - DeleteThread: DELETE /threads/{id}
//   - FetchMessages: GET /threads/{id}/messages
//   - SendMessage: POST /chat
//
// List responses are tolerated both as bare arrays and as envelopes
// ({"threads": [...]}, {"messages": [...]}), because the backend has shipped
// both. Message records are returned raw; content shaping is the normalize
// package's job.
//
// # Authentication
//
// Every request carries a bearer token from the configured TokenSource. An
// empty token short-circuits the call with ErrNoCredential and no network
// traffic. Any HTTP 401 maps to ErrUnauthorized so callers can match it with
// errors.Is and trigger logout.
package gateway
