// Package sim provides an in-memory hal.Board.
//
// Every supported line keeps a configured direction and a level. Output
// lines can be wired to input lines so that driving the output changes what
// the input reads, which is how tests exercise write/read round trips:
//
//	board := sim.New(pins, sim.WithLoopback(8, 10))
//
// The board UART is a byte queue. In loopback mode every transmitted byte
// is queued for reception; Feed injects bytes as if a remote peer had sent
// them. Fail injects driver errors per operation.
package sim
