package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"terminus-realm/worldgen/lisp"
)

const (
	historyFile = ".worldgen_history"
	promptMain  = "worldgen> "
	promptCont  = "      ... "
)

var replCmd = &cli.Command{
	Name:  "repl",
	Usage: "evaluate expressions interactively with the world primitives loaded",
	Description: `The interpreter is prepared exactly as for a chunk script, so
size-x, height, difficulty and the other chunk globals are bound from the
flags. Type :reset for a fresh interpreter and :quit to leave.`,
	Flags:  chunkFlags,
	Action: repl,
}

var evalCmd = &cli.Command{
	Name:      "eval",
	Usage:     "evaluate source with the world primitives loaded and print the result",
	ArgsUsage: "[expr...]",
	Flags: append([]cli.Flag{
		&cli.PathFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "evaluate `path` instead of the arguments",
		},
	}, chunkFlags...),
	Action: eval,
}

func eval(c *cli.Context) error {
	src := strings.Join(c.Args().Slice(), " ")
	if c.IsSet("file") {
		b, err := os.ReadFile(c.Path("file"))
		if err != nil {
			return err
		}
		src = string(b)
	}

	it, err := newInterpreter(c)
	if err != nil {
		return err
	}

	out, err := evalSource(it, src)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, out)
	return nil
}

func repl(c *cli.Context) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return eval(c)
	}

	it, err := newInterpreter(c)
	if err != nil {
		return err
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if home, err := os.UserHomeDir(); err == nil {
		histPath := filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		src, ok := readForm(ln)
		if !ok {
			fmt.Fprintln(c.App.Writer)
			return nil
		}

		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit":
			return nil
		case ":reset":
			if it, err = newInterpreter(c); err != nil {
				return err
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		out, err := evalSource(it, src)
		if err != nil {
			fmt.Fprintln(c.App.ErrWriter, err)
			continue
		}
		fmt.Fprintln(c.App.Writer, out)
	}
}

// readForm prompts until the input parses or fails for a reason other
// than running out of text.
func readForm(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}

		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if _, err := lisp.Parse(b.String()); !lisp.IsIncomplete(err) {
			return b.String(), true
		}
	}
}

func newInterpreter(c *cli.Context) (*lisp.Interpreter, error) {
	g, err := newGenerator(c, c.App.Writer)
	if err != nil {
		return nil, err
	}

	req, err := request(c)
	if err != nil {
		return nil, err
	}

	return g.NewInterpreter(req)
}

func evalSource(it *lisp.Interpreter, src string) (string, error) {
	v, err := it.Load(src)
	if err != nil {
		return "", err
	}
	return lisp.Write(v), nil
}
