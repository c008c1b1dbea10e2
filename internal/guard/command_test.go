package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandGuard_AllowsListedCommand(t *testing.T) {
	g := NewCommandGuard()
	decision := g.Check("ls -la /workspace")
	assert.True(t, decision.Allowed)
}

func TestCommandGuard_RejectsUnlistedCommand(t *testing.T) {
	g := NewCommandGuard()
	decision := g.Check("nmap -sV 10.0.0.1")
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "nmap")
}

func TestCommandGuard_RejectsForkBomb(t *testing.T) {
	g := NewCommandGuard()
	decision := g.Check(":(){ :|:& };:")
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "fork bomb")
}

func TestCommandGuard_RejectsSudoInPipeline(t *testing.T) {
	g := NewCommandGuard()
	decision := g.Check("cat /etc/shadow | sudo tee /tmp/x")
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "sudo")
}

func TestCommandGuard_RejectsRmRfRoot(t *testing.T) {
	g := NewCommandGuard()
	decision := g.Check("rm -rf /")
	assert.False(t, decision.Allowed)
}

func TestCommandGuard_SecondSegmentStillChecked(t *testing.T) {
	g := NewCommandGuard()
	decision := g.Check("ls && nmap localhost")
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "nmap")
}

func TestCommandGuard_QuotedSemicolonIsNotASegmentBreak(t *testing.T) {
	g := NewCommandGuard()
	decision := g.Check(`echo "a;b"`)
	assert.True(t, decision.Allowed)
}

func TestCommandGuard_AddAndRemoveCommands(t *testing.T) {
	g := NewCommandGuard()
	assert.False(t, g.Check("rustup update").Allowed)

	g.AddCommands("rustup")
	assert.True(t, g.Check("rustup update").Allowed)

	g.RemoveCommands("ls")
	assert.False(t, g.Check("ls").Allowed)
}

func TestParseAllowedCommandsEnv(t *testing.T) {
	add, remove := ParseAllowedCommandsEnv(" +rustup , -ssh, docker ")
	assert.ElementsMatch(t, []string{"rustup", "docker"}, add)
	assert.ElementsMatch(t, []string{"ssh"}, remove)
}

func TestExtractProgram_StripsAssignmentsAndPath(t *testing.T) {
	assert.Equal(t, "python3", extractProgram("FOO=bar BAZ=1 /usr/bin/python3 script.py"))
	assert.Equal(t, "ls", extractProgram("  ls -la"))
	assert.Equal(t, "", extractProgram("FOO=bar"))
}
