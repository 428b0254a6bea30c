// Package harness plays scripted paired matches without a server.
//
// A scenario fixes the board size, the random draws of each side and a list
// of turns. Each turn applies side A's actions, then side B's actions, then
// runs the requested number of joint steps. The harness records every
// result in a trace and evaluates assertions against the trace and the
// final boards.
//
// # Scenario Format
//
//	name: single_line_attack
//	description: "A clears a row and B receives one garbage row"
//	board: { width: 4, height: 6 }
//	pieces:
//	  a: [I]
//	  b: [O]
//	turns:
//	  - steps: 1
//	  - a: [drop]
//	    b: [drop]
//	assertions:
//	  - type: lines
//	    side: A
//	    count: 1
//
// pieces replaces a side's random source with a cycling script of shape
// letters. Garbage rows draw from the same script: the hole column is the
// shape index modulo the board width. Sides without pieces draw from a PCG
// generator seeded with seed.
//
// # Assertion Types
//
//   - lines: the side's board cleared exactly count rows
//   - game_over: the match is over (or, with side, that board is)
//   - loser: the match is over and side lost
//   - draw: both boards are over
//   - result_count: count events (optionally of one side) had result kind
package harness
