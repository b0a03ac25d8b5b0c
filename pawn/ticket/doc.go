// Package ticket models pawn ticket operations and the batch a teller works
// through in a single transaction.
//
// A Batch is an immutable value. Add and Remove return a new Batch, and every
// total is recomputed from the operations it holds.
package ticket
