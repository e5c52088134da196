// Package cmd implements the command line surface of the helper: mode
// selection, help and version text, and the mapping of flow errors to exit
// codes.
package cmd

import "errors"

// Mode is the operation selected on the command line.
type Mode int

const (
	ModeNone Mode = iota
	ModeGenerate
	ModeRefresh
	ModeHelp
	ModeVersion
)

// String returns the long flag name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeGenerate:
		return "generate"
	case ModeRefresh:
		return "refresh"
	case ModeHelp:
		return "help"
	case ModeVersion:
		return "version"
	default:
		return "none"
	}
}

// errSyntax signals that the arguments do not select exactly one mode.
var errSyntax = errors.New("invalid arguments")

// modeTokens are the only accepted spellings.
var modeTokens = map[string]Mode{
	"--generate": ModeGenerate,
	"-g":         ModeGenerate,
	"--refresh":  ModeRefresh,
	"-r":         ModeRefresh,
	"--help":     ModeHelp,
	"-h":         ModeHelp,
	"--version":  ModeVersion,
	"-v":         ModeVersion,
}

// ParseMode selects the mode from the arguments following the program name.
// Exactly one of --generate/-g, --refresh/-r, --help/-h, --version/-v must be
// given, spelled exactly so, and nothing else.
func ParseMode(args []string) (Mode, error) {
	if len(args) != 1 {
		return ModeNone, errSyntax
	}
	mode, ok := modeTokens[args[0]]
	if !ok {
		return ModeNone, errSyntax
	}
	return mode, nil
}
