package repl

import "strings"

// Command is the closed set of REPL commands.
type Command int

const (
	CmdNone Command = iota
	CmdUnknown
	CmdLogin
	CmdLogout
	CmdList
	CmdPost
	CmdPromote
	CmdWhoami
	CmdHelp
	CmdExit
)

var commandNames = map[string]Command{
	"login":   CmdLogin,
	"logout":  CmdLogout,
	"list":    CmdList,
	"post":    CmdPost,
	"promote": CmdPromote,
	"whoami":  CmdWhoami,
	"help":    CmdHelp,
	"exit":    CmdExit,
	"quit":    CmdExit,
}

// Invocation is one parsed input line.
type Invocation struct {
	Command Command
	// Line is the lower-cased, trimmed input, used when echoing unknown commands.
	Line string
	// Args are the words after the command, case preserved.
	Args []string
}

// Arg returns the i-th argument or "".
func (inv Invocation) Arg(i int) string {
	if i < len(inv.Args) {
		return inv.Args[i]
	}
	return ""
}

// Parse maps an input line to an Invocation. Command words are matched
// case-insensitively; a blank line yields CmdNone.
func Parse(line string) Invocation {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Invocation{Command: CmdNone}
	}
	inv := Invocation{
		Command: CmdUnknown,
		Line:    strings.ToLower(strings.Join(fields, " ")),
		Args:    fields[1:],
	}
	if cmd, ok := commandNames[strings.ToLower(fields[0])]; ok {
		inv.Command = cmd
	}
	return inv
}
