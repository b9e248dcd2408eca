package traverse

import (
	"strconv"
	"strings"
)

// InputKind classifies one line of user input.
type InputKind int

const (
	InputInvalid InputKind = iota
	InputSelect
	InputBack
	InputExit
	InputTally
)

// Input is a parsed traversal command. N is the 1-based option for
// InputSelect.
type Input struct {
	Kind InputKind
	N    int
	Text string
}

// Select returns an InputSelect for option n.
func Select(n int) Input { return Input{Kind: InputSelect, N: n, Text: strconv.Itoa(n)} }

var keywords = map[string]InputKind{
	"exit":  InputExit,
	"quit":  InputExit,
	"back":  InputBack,
	"done":  InputBack,
	"tally": InputTally,
}

// Parse maps free text onto an Input. Keywords are case-insensitive;
// anything that is neither a keyword nor a positive integer is invalid.
func Parse(text string) Input {
	trimmed := strings.TrimSpace(text)
	if kind, ok := keywords[strings.ToLower(trimmed)]; ok {
		return Input{Kind: kind, Text: trimmed}
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 {
		return Input{Kind: InputInvalid, Text: trimmed}
	}
	return Input{Kind: InputSelect, N: n, Text: trimmed}
}
