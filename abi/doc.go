// Package abi defines the closed set of host functions a guest may import.
//
// Each function has a fixed index, a name in the "env" import module and
// a typed signature. Parameter types are WIT primitives; every one of them
// flattens to a core i32, so a guest import matches only if its core
// signature equals the flattened table entry exactly.
//
//	idx name         params                                              result
//	0   uart_write   handle u8, word u8                                  s32
//	1   uart_read    handle u8, out_ptr u32*                             s32
//	2   uart_init    handle_out_ptr u32*, tx_port, tx_pin, rx_port,
//	                 rx_pin u32, cts_port_ptr*, cts_pin_ptr*,
//	                 rts_port_ptr*, rts_pin_ptr*                         s32
//	3   print        offset u32*, length u32                             -
//	4   gpio_write   port, pin, value u32                                s32
//	5   gpio_read    port, pin u32, out_ptr u32*                         s32
//	6   gpio_init    port, pin u32, is_input bool                        s32
//	7   gpio_deinit  port, pin u32                                       s32
//	8   delay_ms     ms u32                                              -
//	9   println      offset u32*, length u32                             -
//
// Argument order is part of the contract; decoders index arguments by the
// positions declared here and nowhere else.
package abi
