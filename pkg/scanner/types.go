package scanner

import (
	"time"
)

// Command types
const (
	CmdOpen   = "open"
	CmdWrite  = "write"
	CmdEdit   = "edit"
	CmdSearch = "search"
	CmdFind   = "find"
	CmdDelete = "delete"
	CmdMkdir  = "mkdir"
)

// blockCommands carry a body terminated by a closing tag
var blockCommands = map[string]bool{
	CmdWrite: true,
	CmdEdit:  true,
}

// inlineCommands are complete at the closing '>'
var inlineCommands = map[string]bool{
	CmdOpen:   true,
	CmdSearch: true,
	CmdFind:   true,
	CmdDelete: true,
	CmdMkdir:  true,
}

// IsKnown reports whether cmdType is a recognized command
func IsKnown(cmdType string) bool {
	return blockCommands[cmdType] || inlineCommands[cmdType]
}

// Command represents a parsed command from LLM output
type Command struct {
	Type     string
	Argument string
	Content  string
	StartPos int
	EndPos   int
	Original string
}

// ExecutionResult holds the result of a command execution
type ExecutionResult struct {
	Command       Command
	Success       bool
	Result        string
	Error         error
	ExecutionTime time.Duration
	BytesWritten  int64
	BackupFile    string
	Action        string
	Diff          string
	Replacements  int
}
