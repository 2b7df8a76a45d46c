package scanner

import (
	"bufio"
	"strings"
)

// ScannerState represents the current parsing state
type ScannerState int

const (
	StateScanning  ScannerState = iota // Default: scanning for commands or plain text
	StateTagOpen                       // Saw '<', determining tag type
	StateArgument                      // Parsing the argument of an inline command
	StateBlockHead                     // Parsing the path of a block command
	StateBlockBody                     // Accumulating block content until the closing tag
)

// maxTagLength bounds how far past '<' the scanner looks for a command name
const maxTagLength = len("<search ")

// String returns the name of the state (for debugging)
func (s ScannerState) String() string {
	switch s {
	case StateScanning:
		return "StateScanning"
	case StateTagOpen:
		return "StateTagOpen"
	case StateArgument:
		return "StateArgument"
	case StateBlockHead:
		return "StateBlockHead"
	case StateBlockBody:
		return "StateBlockBody"
	default:
		return "StateUnknown"
	}
}

// Scanner is a state machine that yields commands from a stream as soon as
// each one is complete, so interactive sessions see results per command
type Scanner struct {
	state      ScannerState
	buffer     strings.Builder
	currentCmd *Command
	closingTag string
	reader     *bufio.Reader
	pending    string
}

// NewScanner creates a new state-machine scanner
func NewScanner(reader *bufio.Reader) *Scanner {
	return &Scanner{
		state:  StateScanning,
		reader: reader,
	}
}

func (s *Scanner) transitionTo(newState ScannerState) {
	s.state = newState
}

func (s *Scanner) resetCommand() {
	s.currentCmd = nil
	s.closingTag = ""
	s.buffer.Reset()
}

func (s *Scanner) startCommand(cmdType string) {
	s.currentCmd = &Command{Type: cmdType}
	s.buffer.Reset()
	if blockCommands[cmdType] {
		s.closingTag = "</" + cmdType + ">"
		s.transitionTo(StateBlockHead)
	} else {
		s.transitionTo(StateArgument)
	}
}

// finish hands back the current command and returns to scanning
func (s *Scanner) finish() *Command {
	cmd := s.currentCmd
	s.resetCommand()
	s.transitionTo(StateScanning)
	return cmd
}

// Scan reads input and returns the next complete command. It returns nil
// at EOF; an unterminated block command is dropped.
func (s *Scanner) Scan() *Command {
	for {
		line := s.pending
		s.pending = ""
		if line == "" {
			var err error
			line, err = s.reader.ReadString('\n')
			if line == "" && err != nil {
				return nil
			}
		}

		for i := 0; i < len(line); i++ {
			if cmd := s.step(line[i]); cmd != nil {
				s.pending = line[i+1:]
				return cmd
			}
		}
	}
}

// step feeds one byte through the state machine
func (s *Scanner) step(ch byte) *Command {
	switch s.state {
	case StateScanning:
		if ch == '<' {
			s.transitionTo(StateTagOpen)
			s.buffer.Reset()
			s.buffer.WriteByte(ch)
		}

	case StateTagOpen:
		s.buffer.WriteByte(ch)
		switch {
		case ch == ' ' || ch == '\t':
			name := strings.TrimSpace(s.buffer.String()[1:])
			if IsKnown(name) {
				s.startCommand(name)
			} else {
				s.resetCommand()
				s.transitionTo(StateScanning)
			}
		case ch == '>' || ch == '\n' || s.buffer.Len() > maxTagLength:
			s.resetCommand()
			s.transitionTo(StateScanning)
		}

	case StateArgument:
		if ch == '>' {
			s.currentCmd.Argument = strings.TrimSpace(s.buffer.String())
			return s.finish()
		}
		s.buffer.WriteByte(ch)

	case StateBlockHead:
		if ch == '>' {
			s.currentCmd.Argument = strings.TrimSpace(s.buffer.String())
			s.buffer.Reset()
			s.transitionTo(StateBlockBody)
		} else {
			s.buffer.WriteByte(ch)
		}

	case StateBlockBody:
		s.buffer.WriteByte(ch)
		if ch == '>' {
			buffered := s.buffer.String()
			if strings.HasSuffix(buffered, s.closingTag) {
				s.currentCmd.Content = strings.TrimSpace(buffered[:len(buffered)-len(s.closingTag)])
				return s.finish()
			}
		}
	}
	return nil
}
