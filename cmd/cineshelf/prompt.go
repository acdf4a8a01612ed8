package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptPassword reads a password without echo when stdin is a terminal and
// falls back to a plain line read otherwise (pipes, tests).
func (c *cli) promptPassword(w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}

	if file, ok := c.in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	if c.lines == nil {
		c.lines = bufio.NewReader(c.in)
	}
	line, err := c.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
