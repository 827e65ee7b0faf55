// Package game holds the persisted state of a dealt poker hand.
//
// A Table is created whole when a hand starts and replaced whole by the next
// hand at the same table id. Within a hand the only mutations are the
// one-shot reveal timestamps:
//
//   - CommunityCards.Flop/Turn/River.RetrievedAt: set once by a reveal
//   - Table.ShowdownRetrievedAt: set once by the showdown
//
// None of them ever goes back to nil. Players, hole cards, secrets and
// shares never change after the deal.
package game
