// Package zap adapts go.uber.org/zap to the lib-pawn log.Logger interface.
package zap
