// Package script parses plain-text DFPlayer command scripts.
//
// # Script Format
//
// One step per line. Blank lines and lines starting with '#' are ignored,
// as is anything after a '#' on a step line. Keywords are case-insensitive.
//
//	# play the intro, then track 3 at a lower volume
//	source tf
//	wait online tf 5s
//	volume 20
//	folder 1 1
//	wait finished
//	volume 12
//	track 3
//	sleep 1500ms
//	pause
//
// Step kinds:
//   - Commands: any command name, e.g. next, reset, get-volume, track N,
//     volume N, eq pop, mode random, source flash, folder F N,
//     adjust on|off GAIN, repeat on|off, init N
//   - sleep DURATION (Go duration syntax: 500ms, 2s)
//   - wait online|inserted|removed DISK [TIMEOUT]
//   - wait finished [udisk|tf|flash] [TIMEOUT]
//
// Numbers are decimal or 0x-prefixed hex and must fit the wire field
// (16 bits, or 8 bits for folder, file and gain). Device-specific ranges
// such as volume 0-30 are not enforced.
//
// # Usage
//
//	s, err := script.Parse("intro.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, step := range s.Steps {
//	    fmt.Printf("line %d: %s\n", step.Line, step)
//	}
//
// Errors are returned as *LineError carrying the 1-based line number.
package script
