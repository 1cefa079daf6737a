// Package widget is the embeddable follower goal widget runtime: it polls
// the backend, reconciles updates into its own counter, checks the session
// state, and drives an idempotent presentation projection through a small
// port interface so hosts can paint it however they like.
package widget
