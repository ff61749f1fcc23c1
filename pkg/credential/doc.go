// Package credential mints and fetches the short-lived tokens a voice
// session authenticates with.
//
// Server is the backend: it holds the long-lived API key, creates an
// ephemeral realtime session per GET /session and hands its client secret
// to the caller. Client is the voice side of that exchange and implements
// voice.CredentialSource.
package credential
