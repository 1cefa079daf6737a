// Package goal holds the follower goal domain core: the authoritative
// follower counter, the normalized update event shape, and the pure
// projector that derives display-ready state from counter and target.
package goal
