// Package game implements the Blef game state machine.
//
// Blef is a bluffing game played with a 24-card deck (9 to Ace in four
// suits). Every round each active player is dealt as many hidden cards as
// their card count. Players take turns claiming ever stronger patterns that
// they say can be assembled from all of the cards on the table, or call
// "check" to challenge the previous claim. The loser of a check receives an
// extra card for the next round and is eliminated once they hold more cards
// than the table allows.
//
// # Catalog
//
// The 89 possible actions are numbered so that a higher id is always a
// stronger claim; id 88 is Check. Describe returns the pattern behind an id
// and Evaluate tests a pattern against a set of cards.
//
// # Session operations
//
// Join, InviteAgent, MakePublic, Start and Play are pure functions over a
// *Game snapshot. Each returns an Outcome holding a new Game, an optional
// RoundArchive for a completed round and the events the change produced.
// The input snapshot is never modified, which leaves persistence and
// optimistic concurrency entirely to the caller:
//
//	out, err := game.Play(snapshot, playerID, 12, rng)
//	if err != nil {
//	    return err
//	}
//	// persist out.Archive, then out.Game conditioned on the snapshot version
//
// # Visibility
//
// ViewFor and ViewOfRound produce the censored projection shown to players
// and spectators: player ids are never included and hidden hands are only
// revealed once they can no longer influence the game.
package game
