package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name      string
		options   []option
		args      []string
		wantOp    string
		wantValue string
		wantArgs  []string
	}{
		{"no arguments", roleOptions, nil, opHelp, "", []string{}},
		{"long switch", roleOptions, []string{"--create", "admins"}, roleCreate, "", []string{"admins"}},
		{"short switch", roleOptions, []string{"-g", "alice", "admins"}, roleGive, "", []string{"alice", "admins"}},
		{"last switch wins", roleOptions, []string{"--list", "--create", "x"}, roleCreate, "", []string{"x"}},
		{"help after operation", roleOptions, []string{"--create", "x", "--help"}, opHelp, "", []string{"x"}},
		{"interleaved positionals", roleOptions, []string{"alice", "--give", "admins"}, roleGive, "", []string{"alice", "admins"}},
		{"double dash ends switches", roleOptions, []string{"--create", "--", "--odd"}, roleCreate, "", []string{"--odd"}},
		{"find with equals", userOptions, []string{"--find=email", "example.com"}, userFind, "email", []string{"example.com"}},
		{"find with separate value", userOptions, []string{"-f", "name", "bob"}, userFind, "name", []string{"bob"}},
		{"later switch clears value", userOptions, []string{"--find=email", "--list"}, userList, "", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := parse("test", tc.options, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOp, inv.Op)
			assert.Equal(t, tc.wantValue, inv.Value)
			assert.Equal(t, tc.wantArgs, inv.Args)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := parse("role", roleOptions, []string{"--bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")

	_, err = parse("user", userOptions, []string{"--find"})
	require.Error(t, err, "--find needs a mode")
}

func TestParseFailure(t *testing.T) {
	got := parseFailure("role", errors.New("unknown flag: --bogus"))
	assert.Equal(t, "role: unknown flag: --bogus\nTry `role --help' for more information.\n", got)
}

func TestHelp(t *testing.T) {
	got := help("user", "Manage membership users using the default provider", userOptions)

	assert.True(t, strings.HasPrefix(got, "Usage: user [OPTIONS]\nManage membership users using the default provider\n\nOptions:\n"))
	for _, o := range userOptions {
		assert.Contains(t, got, "--"+o.name)
	}
	assert.Contains(t, got, "USAGE: user --create username password email")
	assert.Contains(t, got, "--find [name|email]")
	assert.Less(t, strings.Index(got, "--create"), strings.Index(got, "--delete"), "options keep declaration order")
}
