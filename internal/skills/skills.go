// Package skills discovers SKILL.md files under a channel's skills/
// directory and parses their YAML frontmatter for the system prompt's
// skills catalog.
package skills

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Skill describes one discovered SKILL.md file.
type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Path        string `yaml:"-"`
}

// Discover walks dir for *.md files named SKILL.md (at any depth) and
// parses their leading "---"-delimited YAML frontmatter block.
func Discover(dir string) ([]Skill, error) {
	var found []Skill

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(d.Name(), "SKILL.md") {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		skill, ok := parseFrontmatter(data)
		if !ok {
			return nil
		}
		skill.Path = path
		if skill.Name == "" {
			skill.Name = filepath.Base(filepath.Dir(path))
		}
		found = append(found, skill)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func parseFrontmatter(data []byte) (Skill, bool) {
	const delim = "---"
	content := string(data)
	if !strings.HasPrefix(content, delim) {
		return Skill{}, false
	}
	rest := content[len(delim):]
	end := strings.Index(rest, delim)
	if end == -1 {
		return Skill{}, false
	}
	block := rest[:end]

	var skill Skill
	if err := yaml.Unmarshal([]byte(block), &skill); err != nil {
		return Skill{}, false
	}
	return skill, true
}
