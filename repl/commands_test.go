package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		cmd  Command
		args []string
	}{
		{"", CmdNone, nil},
		{"   \t", CmdNone, nil},
		{"login", CmdLogin, []string{}},
		{"  LOGOUT  ", CmdLogout, []string{}},
		{"list", CmdList, []string{}},
		{"list abc-123", CmdList, []string{"abc-123"}},
		{"post", CmdPost, []string{}},
		{"Post 3F2504E0", CmdPost, []string{"3F2504E0"}},
		{"promote Bob", CmdPromote, []string{"Bob"}},
		{"whoami", CmdWhoami, []string{}},
		{"help", CmdHelp, []string{}},
		{"exit", CmdExit, []string{}},
		{"Quit", CmdExit, []string{}},
		{"dance", CmdUnknown, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			inv := Parse(tt.line)
			assert.Equal(t, tt.cmd, inv.Command)
			if tt.args != nil {
				assert.Equal(t, tt.args, inv.Args)
			}
		})
	}
}

func TestParseUnknownKeepsLine(t *testing.T) {
	inv := Parse("  Do   The Thing ")
	assert.Equal(t, CmdUnknown, inv.Command)
	assert.Equal(t, "do the thing", inv.Line)
}

func TestInvocationArg(t *testing.T) {
	inv := Parse("post 42")
	assert.Equal(t, "42", inv.Arg(0))
	assert.Equal(t, "", inv.Arg(1))
}
