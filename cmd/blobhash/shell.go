package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell <file>",
		Short: "Interactive lookups against a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.openTable(args[0])
			if err != nil {
				return err
			}
			defer t.Close()
			return (&shell{t: t, out: cmd.OutOrStdout()}).run(args[0])
		},
	}
}

// shell is a REPL over one table.
type shell struct {
	t     *table
	out   io.Writer
	liner *liner.State
}

var shellCommands = []string{"get", "has", "count", "stats", "help", "quit"}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".blobhash_history")
}

func (s *shell) run(name string) error {
	s.liner = liner.NewLiner()
	defer s.liner.Close()

	s.liner.SetCtrlCAborts(true)
	s.liner.SetCompleter(completer)

	if f, err := os.Open(historyFile()); err == nil {
		s.liner.ReadHistory(f)
		f.Close()
	}
	defer s.saveHistory()

	fmt.Fprintf(s.out, "blobhash shell - %s (%d entries)\n", name, s.t.count())
	fmt.Fprintln(s.out, "Type 'help' for available commands.")

	for {
		line, err := s.liner.Prompt("blobhash> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.liner.AppendHistory(line)
		if s.exec(line) {
			return nil
		}
	}
}

func (s *shell) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			s.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// completer provides tab completion for commands.
func completer(line string) []string {
	var out []string
	for _, c := range shellCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(line string) bool {
	parts := strings.Fields(line)
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, "  get KEY...    print the values stored under each key")
		fmt.Fprintln(s.out, "  has KEY       report whether KEY is present")
		fmt.Fprintln(s.out, "  count KEY     number of values stored under KEY")
		fmt.Fprintln(s.out, "  stats         table statistics")
		fmt.Fprintln(s.out, "  quit          leave the shell")
	case "get", "has", "count":
		if len(args) == 0 {
			fmt.Fprintf(s.out, "usage: %s KEY\n", cmd)
			return false
		}
		for _, a := range args {
			k, err := strconv.ParseUint(a, 10, 64)
			if err != nil {
				fmt.Fprintf(s.out, "invalid key %q\n", a)
				continue
			}
			var vs []uint64
			for v := range s.t.values(k) {
				vs = append(vs, v)
			}
			switch cmd {
			case "get":
				printValues(s.out, a, vs)
			case "has":
				fmt.Fprintf(s.out, "%s: %v\n", a, len(vs) > 0)
			case "count":
				fmt.Fprintf(s.out, "%s: %d\n", a, len(vs))
			}
		}
	case "stats":
		st := s.t.stats()
		fmt.Fprintf(s.out, "%s: %d entries, %d distinct keys, %d/%d buckets occupied, max chain %d\n",
			st.Kind, st.Count, st.DistinctKeys, st.OccupiedBuckets, st.BucketCapacity, st.MaxChain)
	default:
		fmt.Fprintf(s.out, "unknown command %q (try 'help')\n", cmd)
	}
	return false
}
