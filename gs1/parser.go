// Package gs1 implements the legacy line-based event scripting dialect.
// Scripts are parsed into event blocks of commands and interpreted
// directly; there is no compilation stage.
package gs1

import (
	"strings"

	"github.com/torchlight/gserver/script"
)

// Arg is one raw argument token of a command. Quoted tokens always
// resolve to strings; bare tokens may resolve to globals or numbers.
type Arg struct {
	Text   string
	Quoted bool
}

// Command is a verb plus its raw argument tokens. Arguments resolve to
// values at execution time, not parse time.
type Command struct {
	Verb string // lowercased
	Args []Arg
	Line int
}

// Block is the command list bound to one event.
type Block struct {
	Event    script.Event
	Commands []Command
	labels   map[string]int // label name (lowercased) to command index
}

// Script is an ordered sequence of event blocks.
type Script struct {
	Blocks []*Block
}

// HandlesEvent reports whether any block is bound to the event.
func (s *Script) HandlesEvent(event script.Event) bool {
	for _, b := range s.Blocks {
		if b.Event == event {
			return true
		}
	}
	return false
}

// Parse scans source line by line. A line of the form "ON <EVENT>"
// starts a new event block; subsequent lines are commands of that block.
// An unknown event keyword or a command outside any block rejects the
// whole script.
func Parse(source string) (*Script, error) {
	sc := &Script{}
	var cur *Block

	for i, raw := range strings.Split(source, "\n") {
		line := i + 1
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		args, err := splitLine(text, line)
		if err != nil {
			return nil, err
		}
		verb := strings.ToLower(args[0].Text)

		if verb == "on" && !args[0].Quoted {
			if len(args) != 2 {
				return nil, script.NewParseError(line, "expected ON <EVENT>")
			}
			event, ok := script.ParseEvent(args[1].Text)
			if !ok {
				return nil, script.NewParseError(line, "unknown event %q", args[1].Text)
			}
			cur = &Block{Event: event, labels: make(map[string]int)}
			sc.Blocks = append(sc.Blocks, cur)
			continue
		}

		if cur == nil {
			return nil, script.NewParseError(line, "command %q outside an event block", args[0].Text)
		}

		if verb == "label" {
			if len(args) != 2 {
				return nil, script.NewParseError(line, "expected LABEL <name>")
			}
			name := strings.ToLower(args[1].Text)
			if _, dup := cur.labels[name]; dup {
				return nil, script.NewParseError(line, "duplicate label %q", args[1].Text)
			}
			cur.labels[name] = len(cur.Commands)
		}

		cur.Commands = append(cur.Commands, Command{Verb: verb, Args: args[1:], Line: line})
	}

	return sc, nil
}

// splitLine tokenizes one command line. Double quotes group words into
// a single quoted token; \" and \\ escape inside quotes.
func splitLine(text string, line int) ([]Arg, error) {
	var args []Arg
	i := 0
	for i < len(text) {
		switch {
		case text[i] == ' ' || text[i] == '\t':
			i++
		case text[i] == '"':
			var sb strings.Builder
			i++
			closed := false
			for i < len(text) {
				c := text[i]
				if c == '\\' && i+1 < len(text) {
					sb.WriteByte(text[i+1])
					i += 2
					continue
				}
				if c == '"' {
					i++
					closed = true
					break
				}
				sb.WriteByte(c)
				i++
			}
			if !closed {
				return nil, script.NewParseError(line, "unterminated string")
			}
			args = append(args, Arg{Text: sb.String(), Quoted: true})
		default:
			start := i
			for i < len(text) && text[i] != ' ' && text[i] != '\t' {
				i++
			}
			args = append(args, Arg{Text: text[start:i]})
		}
	}
	return args, nil
}
