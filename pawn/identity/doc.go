// Package identity decides whether the person collecting a redemption is
// someone other than the ticket's registered customer, and which evidence
// the teller must then record before the batch may proceed.
package identity
