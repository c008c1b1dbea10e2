package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/EdibleTuber/mother/internal/skills"
	"github.com/EdibleTuber/mother/internal/workspace"
)

const (
	motherCap        = 3000
	globalMemoryCap  = 1500
	channelMemoryCap = 1000
)

const identityPreamble = `You are Mother, an autonomous agent operating inside a Discord channel.
You have a persistent workspace, a set of tools, and the ability to schedule future work for yourself.
Act directly; do not narrate what you are about to do.`

// BuildSystemPrompt assembles the system prompt from scratch on every run,
// per spec §4.6: static identity, paths, MOTHER.md/MEMORY.md (capped and
// truncation-tagged), a channel/user table, a workspace tree, and a skills
// catalog.
func BuildSystemPrompt(workspaceRoot, channelID string, userTable map[string]string) string {
	var b strings.Builder

	b.WriteString(identityPreamble)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Channel ID: %s\nWorkspace root: %s\nChannel workspace: %s\n\n",
		channelID, workspaceRoot, filepath.Join(workspaceRoot, channelID))

	b.WriteString(loadCapped(filepath.Join(workspaceRoot, "MOTHER.md"), motherCap, "MOTHER.md"))
	b.WriteString(loadCapped(filepath.Join(workspaceRoot, "MEMORY.md"), globalMemoryCap, "global MEMORY.md"))
	b.WriteString(loadCapped(filepath.Join(workspaceRoot, channelID, "MEMORY.md"), channelMemoryCap, "channel MEMORY.md"))

	if len(userTable) > 0 {
		b.WriteString("## Known users\n")
		for id, handle := range userTable {
			fmt.Fprintf(&b, "- %s -> %s\n", id, handle)
		}
		b.WriteString("\n")
	}

	if tree, err := workspace.Tree(filepath.Join(workspaceRoot, channelID)); err == nil && tree != "" {
		b.WriteString("## Workspace layout\n")
		b.WriteString(tree)
		b.WriteString("\n")
	}

	if discovered, err := skills.Discover(filepath.Join(workspaceRoot, channelID, "skills")); err == nil && len(discovered) > 0 {
		b.WriteString("## Skills\n")
		for _, s := range discovered {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", s.Name, s.Description, s.Path)
		}
	}

	return b.String()
}

func loadCapped(path string, cap int, label string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	content := string(data)
	truncated := false
	if len(content) > cap {
		content = content[:cap]
		truncated = true
	}
	note := ""
	if truncated {
		note = " (truncated)"
	}
	return fmt.Sprintf("## %s%s\n%s\n\n", label, note, content)
}
