package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/moffa90/go-dfplayer/protocol"
)

// Constants for script parsing.
const (
	// CommentPrefix starts a comment, either on its own line or after a step
	CommentPrefix = "#"

	// DefaultStepCapacity is the default initial capacity for the steps slice
	DefaultStepCapacity = 32
)

// Parse parses a script file from the given path.
//
// Example:
//
//	s, err := script.Parse("intro.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Parse(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses a script from any io.Reader.
//
// Example:
//
//	s, err := script.ParseReader(strings.NewReader("volume 20\ntrack 1\n"))
func ParseReader(r io.Reader) (*Script, error) {
	scanner := bufio.NewScanner(r)
	s := &Script{Steps: make([]*Step, 0, DefaultStepCapacity)}

	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := scanner.Text()
		if i := strings.Index(line, CommentPrefix); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(strings.ToLower(line))
		if len(fields) == 0 {
			continue
		}

		step, err := parseStep(fields)
		if err != nil {
			return nil, &LineError{Line: lineNum, Err: err}
		}
		step.Line = lineNum
		s.Steps = append(s.Steps, step)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	if len(s.Steps) == 0 {
		return nil, ErrEmptyScript
	}

	return s, nil
}

// ParseStep parses a single step from its whitespace-separated fields,
// e.g. the arguments of a CLI invocation.
func ParseStep(fields []string) (*Step, error) {
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	return parseStep(lowered)
}

func parseStep(fields []string) (*Step, error) {
	if len(fields) == 0 {
		return nil, &ArgumentError{Reason: "empty step"}
	}
	keyword, args := fields[0], fields[1:]

	switch keyword {
	case "sleep":
		if len(args) != 1 {
			return nil, &ArgumentError{Keyword: keyword, Reason: "expects a duration"}
		}
		d, err := parseDuration(keyword, args[0])
		if err != nil {
			return nil, err
		}
		return &Step{Kind: StepSleep, Duration: d}, nil

	case "wait":
		return parseWait(args)
	}

	code, ok := protocol.LookupCommandCode(keyword)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", keyword)
	}

	cmd, err := parseCommand(code, args)
	if err != nil {
		return nil, err
	}
	return &Step{Kind: StepCommand, Command: cmd}, nil
}

// parseCommand builds the command for code from its arguments.
func parseCommand(code protocol.CommandCode, args []string) (protocol.Command, error) {
	keyword := code.String()

	want := 0
	switch code {
	case protocol.CmdTrack, protocol.CmdSetVolume, protocol.CmdInitialisationParameters,
		protocol.CmdSetEq, protocol.CmdSetPlaybackMode, protocol.CmdSetPlaybackSource,
		protocol.CmdRepeatPlay:
		want = 1
	case protocol.CmdSetFolder, protocol.CmdSetVolumeAdjust:
		want = 2
	}
	if len(args) != want {
		return protocol.Command{}, &ArgumentError{
			Keyword: keyword,
			Reason:  fmt.Sprintf("expects %d argument(s), got %d", want, len(args)),
		}
	}

	switch code {
	case protocol.CmdTrack:
		n, err := parseUint(keyword, args[0], 16)
		return protocol.Track(uint16(n)), err

	case protocol.CmdSetVolume:
		n, err := parseUint(keyword, args[0], 16)
		return protocol.SetVolume(uint16(n)), err

	case protocol.CmdInitialisationParameters:
		n, err := parseUint(keyword, args[0], 16)
		return protocol.InitialisationParameters(uint16(n)), err

	case protocol.CmdSetEq:
		n, err := parseEnum(keyword, args[0], eqNames)
		return protocol.SetEq(protocol.EqMode(n)), err

	case protocol.CmdSetPlaybackMode:
		n, err := parseEnum(keyword, args[0], modeNames)
		return protocol.SetPlaybackMode(protocol.PlaybackMode(n)), err

	case protocol.CmdSetPlaybackSource:
		n, err := parseEnum(keyword, args[0], sourceNames)
		return protocol.SetPlaybackSource(protocol.PlaybackSource(n)), err

	case protocol.CmdRepeatPlay:
		on, err := parseOnOff(keyword, args[0])
		return protocol.RepeatPlay(on), err

	case protocol.CmdSetFolder:
		folder, err := parseUint(keyword, args[0], 8)
		if err != nil {
			return protocol.Command{}, err
		}
		file, err := parseUint(keyword, args[1], 8)
		return protocol.SetFolder(uint8(folder), uint8(file)), err

	case protocol.CmdSetVolumeAdjust:
		on, err := parseOnOff(keyword, args[0])
		if err != nil {
			return protocol.Command{}, err
		}
		gain, err := parseUint(keyword, args[1], 8)
		return protocol.SetVolumeAdjust(on, uint8(gain)), err

	default:
		return protocol.Command{Code: code}, nil
	}
}

// parseWait parses the arguments of a wait step.
func parseWait(args []string) (*Step, error) {
	const keyword = "wait"

	if len(args) == 0 {
		return nil, &ArgumentError{Keyword: keyword, Reason: "expects a condition"}
	}

	step := &Step{Kind: StepWait}
	rest := args[1:]

	switch args[0] {
	case "finished":
		if len(rest) > 0 {
			if kind, ok := finishKinds[rest[0]]; ok {
				step.Until.Kind = kind
				rest = rest[1:]
			}
		}

	case "online", "inserted", "removed":
		if len(rest) == 0 {
			return nil, &ArgumentError{Keyword: keyword, Reason: args[0] + " expects a disk"}
		}
		n, err := parseEnum(keyword, rest[0], diskNames)
		if err != nil {
			return nil, err
		}
		step.Until = Condition{Kind: diskKinds[args[0]], Disk: protocol.Disk(n)}
		rest = rest[1:]

	default:
		return nil, &ArgumentError{Keyword: keyword, Arg: args[0], Reason: "unknown condition"}
	}

	switch len(rest) {
	case 0:
	case 1:
		d, err := parseDuration(keyword, rest[0])
		if err != nil {
			return nil, err
		}
		step.Duration = d
	default:
		return nil, &ArgumentError{Keyword: keyword, Reason: "too many arguments"}
	}

	return step, nil
}

var diskKinds = map[string]protocol.ResponseKind{
	"online":   protocol.RespDiskOnline,
	"inserted": protocol.RespDiskInserted,
	"removed":  protocol.RespDiskRemoved,
}

var finishKinds = map[string]protocol.ResponseKind{
	"udisk": protocol.RespUDiskFinishPlayback,
	"tf":    protocol.RespTfFinishPlayback,
	"flash": protocol.RespFlashFinishPlayback,
}

var (
	eqNames     = enumNames(protocol.EqNormal, protocol.EqPop, protocol.EqRock, protocol.EqJazz, protocol.EqClassic, protocol.EqBase)
	modeNames   = enumNames(protocol.ModeRepeat, protocol.ModeFolderRepeat, protocol.ModeSingleRepeat, protocol.ModeRandom)
	sourceNames = enumNames(protocol.SourceUDisk, protocol.SourceTf, protocol.SourceAux, protocol.SourceSleep, protocol.SourceFlash)
	diskNames   = enumNames(protocol.DiskUDisk, protocol.DiskTf, protocol.DiskPc, protocol.DiskFlash, protocol.DiskUDiskAndFlash)
)

type enumValue interface {
	~uint16 | ~byte
	fmt.Stringer
}

// enumNames maps each value's String() form to its numeric code.
func enumNames[T enumValue](values ...T) map[string]uint64 {
	names := make(map[string]uint64, len(values))
	for _, v := range values {
		names[v.String()] = uint64(v)
	}
	return names
}

// parseEnum accepts either a symbolic name or a numeric code of that enum.
func parseEnum(keyword, arg string, names map[string]uint64) (uint64, error) {
	if n, ok := names[arg]; ok {
		return n, nil
	}
	n, err := parseUint(keyword, arg, 16)
	if err != nil {
		return 0, &ArgumentError{Keyword: keyword, Arg: arg, Reason: "unknown name"}
	}
	for _, v := range names {
		if v == n {
			return n, nil
		}
	}
	return 0, &ArgumentError{Keyword: keyword, Arg: arg, Reason: "unknown code"}
}

// parseUint parses a decimal or 0x-prefixed hex number that fits in bits.
func parseUint(keyword, arg string, bits int) (uint64, error) {
	base := 10
	digits := arg
	if strings.HasPrefix(arg, "0x") {
		base = 16
		digits = arg[2:]
	}

	n, err := strconv.ParseUint(digits, base, bits)
	if err != nil {
		reason := "not a number"
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			reason = fmt.Sprintf("does not fit in %d bits", bits)
		}
		return 0, &ArgumentError{Keyword: keyword, Arg: arg, Reason: reason}
	}
	return n, nil
}

func parseOnOff(keyword, arg string) (bool, error) {
	switch arg {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, &ArgumentError{Keyword: keyword, Arg: arg, Reason: "expects on or off"}
}

func parseDuration(keyword, arg string) (time.Duration, error) {
	d, err := time.ParseDuration(arg)
	if err != nil || d < 0 {
		return 0, &ArgumentError{Keyword: keyword, Arg: arg, Reason: "expects a duration such as 500ms"}
	}
	return d, nil
}
