// Package streamlabs integrates with the Streamlabs API: the OAuth
// authorization-code flow, the socket-token exchange, and the persistent
// socket subscription that delivers follow/unfollow events in real time.
package streamlabs
