package guard

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// defaultAllowedCommands is the baseline allow-list: file/text/dev/network/
// archive/pkg/utility commands. Kept deliberately broad — the dangerous
// subset is caught by criticalPatterns below regardless of allow-list
// membership.
var defaultAllowedCommands = []string{
	// file
	"ls", "cat", "head", "tail", "cp", "mv", "mkdir", "touch", "stat",
	"file", "find", "wc", "diff", "tree", "du", "df", "ln", "realpath",
	"basename", "dirname",
	// text
	"grep", "sed", "awk", "sort", "uniq", "cut", "tr", "jq", "xargs",
	"tee", "fold", "column", "less", "more", "fmt",
	// dev
	"git", "go", "node", "npm", "npx", "python", "python3", "pip",
	"pip3", "make", "cargo", "rustc", "gcc", "g++", "javac", "java",
	"ruby", "perl", "sh", "bash", "zsh",
	// network (read-only style usage; exfiltration forms are still
	// rejected by the critical-pattern layer)
	"curl", "wget", "ping",
	// archive
	"tar", "gzip", "gunzip", "zip", "unzip", "xz",
	// pkg
	"apt", "apt-get", "brew", "yarn", "pnpm",
	// utility
	"echo", "which", "env", "date", "sleep", "yes", "xxd", "base64",
	"md5sum", "sha256sum",
}

// shellBuiltins are implicitly allowed regardless of the command allow-list.
var shellBuiltins = map[string]bool{}

func init() {
	for _, b := range []string{
		"cd", "echo", "printf", "export", "pwd", "set", "unset", "read",
		"test", "[", "true", "false", "exit", "return", "shift", "wait",
		"trap", "source", ".", "local", "declare", "typeset", "alias",
		"unalias", "hash", "command", "builtin", "let", "getopts",
		"pushd", "popd", "dirs", "umask", "ulimit", "times", "bg", "fg",
		"jobs", "disown", "enable", "help", "logout", "mapfile",
		"readarray", "compgen", "complete", "compopt", "coproc", "select",
		"shopt",
	} {
		shellBuiltins[b] = true
	}
}

// criticalPatterns are always rejected, even for allow-listed programs.
var criticalPatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`:\(\)\s*\{\s*:\|\s*:\s*&\s*\}\s*;\s*:`), "fork bomb"},
	{regexp.MustCompile(`\brm\s+-[rRfF]*[rR][rRfF]*\s+/\s*\*?\s*$`), "rm -rf /"},
	{regexp.MustCompile(`\brm\s+-[rRfF]*[rR][rRfF]*\s+/\*`), "rm -rf /*"},
	{regexp.MustCompile(`\brm\s+(-[a-zA-Z]*f[a-zA-Z]*\s+-[a-zA-Z]*r|-[a-zA-Z]*r[a-zA-Z]*\s+-[a-zA-Z]*f)[a-zA-Z]*\s+/\*?\s*$`), "rm -f -r /"},
	{regexp.MustCompile(`\bsudo\b`), "sudo"},
	{regexp.MustCompile(`\bshutdown\b`), "shutdown"},
	{regexp.MustCompile(`\breboot\b`), "reboot"},
	{regexp.MustCompile(`\bdd\s+if=`), "dd"},
	{regexp.MustCompile(`\bsystemctl\b`), "systemctl"},
	{regexp.MustCompile(`\bbash\s+-c\b`), "bash -c"},
	{regexp.MustCompile(`\beval\b`), "eval"},
	{regexp.MustCompile(`\bexec\b`), "exec"},
}

// CommandGuard evaluates shell commands against an allow-list plus a set
// of always-rejected critical patterns.
type CommandGuard struct {
	allowed map[string]bool
}

// NewCommandGuard builds a guard seeded with the default allow-list.
func NewCommandGuard() *CommandGuard {
	g := &CommandGuard{allowed: map[string]bool{}}
	for _, c := range defaultAllowedCommands {
		g.allowed[c] = true
	}
	return g
}

// AddCommands adds program basenames to the allow-list.
func (g *CommandGuard) AddCommands(names ...string) {
	for _, n := range names {
		g.allowed[n] = true
	}
}

// RemoveCommands removes program basenames from the allow-list.
func (g *CommandGuard) RemoveCommands(names ...string) {
	for _, n := range names {
		delete(g.allowed, n)
	}
}

// CommandDecision is the result of a command check.
type CommandDecision struct {
	Allowed bool
	Reason  string
}

// Check evaluates a full shell command line: critical patterns first
// (rejected unconditionally), then per-segment allow-list membership.
func (g *CommandGuard) Check(command string) CommandDecision {
	for _, cp := range criticalPatterns {
		if cp.re.MatchString(command) {
			return CommandDecision{Allowed: false, Reason: fmt.Sprintf("command denied: matches critical pattern (%s)", cp.reason)}
		}
	}

	segments := splitSegments(command)
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		prog := extractProgram(seg)
		if prog == "" {
			continue
		}
		if shellBuiltins[prog] || g.allowed[prog] {
			continue
		}
		return CommandDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("Command denied: '%s' is not on the allowed commands list", prog),
		}
	}

	return CommandDecision{Allowed: true}
}

// splitSegments splits on unquoted ;, |, ||, && honoring single/double
// quotes and backslash escapes.
func splitSegments(command string) []string {
	var segments []string
	var cur strings.Builder
	inSingle, inDouble, escaped := false, false, false

	flush := func() {
		segments = append(segments, cur.String())
		cur.Reset()
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if escaped {
			cur.WriteRune(c)
			escaped = false
			continue
		}
		switch {
		case c == '\\' && !inSingle:
			escaped = true
			cur.WriteRune(c)
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteRune(c)
		case c == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteRune(c)
		case !inSingle && !inDouble && c == ';':
			flush()
		case !inSingle && !inDouble && c == '|':
			if i+1 < len(runes) && runes[i+1] == '|' {
				i++
			}
			flush()
		case !inSingle && !inDouble && c == '&':
			if i+1 < len(runes) && runes[i+1] == '&' {
				i++
			}
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return segments
}

// extractProgram pulls the program basename out of a single segment:
// strip leading whitespace and opening ( or {, strip leading VAR=value
// assignments, take the first token, strip any path prefix.
func extractProgram(segment string) string {
	s := strings.TrimLeft(segment, " \t")
	for len(s) > 0 && (s[0] == '(' || s[0] == '{') {
		s = strings.TrimLeft(s[1:], " \t")
	}

	fields := strings.Fields(s)
	idx := 0
	for idx < len(fields) && isAssignment(fields[idx]) {
		idx++
	}
	if idx >= len(fields) {
		return ""
	}
	prog := fields[idx]
	prog = strings.Trim(prog, `'"`)
	return filepath.Base(prog)
}

func isAssignment(tok string) bool {
	eq := strings.Index(tok, "=")
	if eq <= 0 {
		return false
	}
	name := tok[:eq]
	for i, r := range name {
		if i == 0 && !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
		if i > 0 && !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// ParseAllowedCommandsEnv parses a comma-separated ±prefixed list such as
// " +rustup , -ssh " into add/remove sets. No prefix means add.
func ParseAllowedCommandsEnv(env string) (add []string, remove []string) {
	for _, part := range strings.Split(env, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		switch p[0] {
		case '+':
			add = append(add, strings.TrimSpace(p[1:]))
		case '-':
			remove = append(remove, strings.TrimSpace(p[1:]))
		default:
			add = append(add, p)
		}
	}
	return add, remove
}

// ApplyEnv applies the result of ParseAllowedCommandsEnv to the guard.
func (g *CommandGuard) ApplyEnv(env string) {
	add, remove := ParseAllowedCommandsEnv(env)
	g.AddCommands(add...)
	g.RemoveCommands(remove...)
}
