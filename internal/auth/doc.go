// Package auth manages the bearer credential for the Fluxora API.
//
// The token comes from the FLUXORA_TOKEN environment variable or a token
// file under the user's config directory. The credential is opaque to this
// client - the server verifies it - but when it happens to be a JWT the
// expiry claim can be inspected locally to warn before the first 401.
package auth
