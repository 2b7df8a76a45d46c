package scanner

import (
	"regexp"
	"sort"
	"strings"
)

var (
	// <open path>, <search pattern>, ...
	inlinePattern = regexp.MustCompile(`(?m)^\s*<(open|search|find|delete|mkdir)\s+([^>]+)>`)

	// <write path>content</write> and <edit path>{json}</edit>; RE2 has no
	// backreferences so each block command gets its own pattern
	blockPatterns = map[string]*regexp.Regexp{
		CmdWrite: regexp.MustCompile(`(?ms)^\s*<write\s+([^>]+)>\s*(.*?)</write>`),
		CmdEdit:  regexp.MustCompile(`(?ms)^\s*<edit\s+([^>]+)>\s*(.*?)</edit>`),
	}
)

// ParseCommands extracts commands from LLM output in document order
func ParseCommands(text string) []Command {
	var commands []Command

	for _, match := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		if len(match) < 6 {
			continue
		}
		commands = append(commands, Command{
			Type:     text[match[2]:match[3]],
			Argument: strings.TrimSpace(text[match[4]:match[5]]),
			StartPos: match[0],
			EndPos:   match[1],
			Original: text[match[0]:match[1]],
		})
	}

	for cmdType, pattern := range blockPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(text, -1) {
			if len(match) < 6 {
				continue
			}
			commands = append(commands, Command{
				Type:     cmdType,
				Argument: strings.TrimSpace(text[match[2]:match[3]]),
				Content:  strings.TrimSpace(text[match[4]:match[5]]),
				StartPos: match[0],
				EndPos:   match[1],
				Original: text[match[0]:match[1]],
			})
		}
	}

	commands = dropNested(commands)
	return commands
}

// dropNested sorts commands by position and removes any command found
// inside the body of an earlier block command
func dropNested(commands []Command) []Command {
	sort.SliceStable(commands, func(i, j int) bool {
		return commands[i].StartPos < commands[j].StartPos
	})

	out := commands[:0]
	end := -1
	for _, cmd := range commands {
		if cmd.StartPos < end {
			continue
		}
		out = append(out, cmd)
		end = cmd.EndPos
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
