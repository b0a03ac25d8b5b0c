// Package circuitbreaker guards calls to the pawnshop backend with
// sony/gobreaker breakers, one per backend operation.
//
// Domain rejections (a wrong PIN, an unknown ticket) are successful calls from
// the breaker's point of view; only transport and availability failures trip
// it.
package circuitbreaker
