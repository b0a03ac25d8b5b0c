// Package pawn holds the cross-cutting pieces of the pawn ticket console core:
// the error taxonomy shared by every subpackage, environment configuration
// helpers and context-carried logging.
//
// Domain logic lives in subpackages:
//
//	money      -- 2-dp money values and the reconciliation tolerance
//	ticket     -- ticket numbers, national IDs, operations and batches
//	reconcile  -- payment reconciliation arithmetic
//	identity   -- redeemer classification and evidence checks
//	authz      -- dual-staff / manager approval policy
//	workflow   -- the four-stage transaction state machine
//	session    -- staff session lifecycle and expiry polling
//	backend    -- boundary to the ticket/staff/commit services
//	desk       -- coordinator owning the session and the active batch
package pawn
