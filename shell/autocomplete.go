package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/gamesearch/search"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"search": {
		Options: []string{
			"-strategy", "-lookahead", "-alphabeta", "-quiescence", "-tt",
			"-tree", "-record", "-log", "-wait",
		},
	},
	"compare": {
		Options: []string{
			"-positions", "-plies", "-lookahead", "-alphabeta", "-quiescence",
			"-yaml",
		},
	},
	"set": {
		Args: []string{
			"strategy", "lookahead", "alphabeta", "quiescence",
			"maxquiescentdepth", "percentagebestmoves", "minbestmoves",
			"transpositiontable", "checksymmetry", "weights",
		},
	},
	"setconfig": {
		Args: []string{
			"search-strategy", "lookahead", "alpha-beta", "quiescence",
			"transposition-table", "ttable-memory-fraction", "tree-dir",
			"progress-log-interval-ms",
		},
	},
	"help": {
		Args: []string{"search", "set", "compare", "tree", "script"},
	},
}

var commandNames = []string{
	"help", "new", "show", "play", "undo", "gen", "search", "pause",
	"continue", "stop", "progress", "tree", "compare", "set", "setconfig",
	"script", "exit",
}

var boolValues = []string{"true", "false"}

func strategyNames() []string {
	names := make([]string, len(search.AllKinds))
	for i, k := range search.AllKinds {
		names[i] = k.String()
	}
	return names
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// unterminated quote
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "strategy":
				completions = strategyNames()
			case "alphabeta", "quiescence", "tt", "record", "wait":
				completions = boolValues
			}
		} else if cmdName == "set" && len(fields) >= 2 && (len(fields) > 2 || endsWithSpace) {
			switch fields[1] {
			case "strategy":
				completions = strategyNames()
			case "alphabeta", "quiescence", "transpositiontable", "checksymmetry":
				completions = boolValues
			default:
				completions = []string{}
			}
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
