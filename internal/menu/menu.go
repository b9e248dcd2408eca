// Package menu drives a traversal from a line-oriented text stream.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"whorep/internal/traverse"
)

const invalidEntry = "Invalid entry. Please select one of the listed options."

// Run renders the machine's view to out and feeds it one line of in at a
// time until the session ends, input is exhausted or ctx is done.
func Run(ctx context.Context, m *traverse.Machine, in io.Reader, out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	scanner := bufio.NewScanner(in)
	view := m.View()
	for {
		render(w, view)
		if m.Ended() {
			return nil
		}
		fmt.Fprintf(w, "%s: ", view.Prompt)
		if err := w.Flush(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		next, err := m.Apply(traverse.Parse(scanner.Text()))
		switch {
		case errors.Is(err, traverse.ErrInvalidSelection):
			fmt.Fprintln(w, invalidEntry)
		case err != nil:
			return err
		}
		view = next
	}
}

func render(w io.Writer, v traverse.View) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, v.Title)
	fmt.Fprintln(w, strings.Repeat("-", len(v.Title)))
	for _, line := range v.Lines {
		fmt.Fprintln(w, "  "+line)
	}
	if len(v.Tally) > 0 {
		fmt.Fprintln(w, "  Party affiliation:")
		for _, e := range v.Tally {
			fmt.Fprintf(w, "    %s: %d\n", e.Party, e.Count)
		}
	}
	if len(v.Options) > 0 {
		fmt.Fprintln(w)
		for _, o := range v.Options {
			fmt.Fprintf(w, "  %d. %s\n", o.Number, o.Label)
		}
	}
}
