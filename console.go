// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/elliotnunn/huffpack/internal/notify"
)

// console shows signals on the terminal and asks before overwriting
type console struct {
	mu        sync.Mutex
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

var _ notify.Sink = (*console)(nil)

func newConsole(in io.Reader, out io.Writer, assumeYes bool) *console {
	return &console{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (c *console) Notify(s notify.Signal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch s.Kind {
	case notify.Input, notify.Output:
		slog.Warn(s.Title, "kind", s.Kind, "msg", s.Message)
	case notify.Done:
		slog.Info(s.Title, "kind", s.Kind, "msg", s.Message)
	case notify.Confirm:
		if c.assumeYes {
			slog.Info(s.Title, "kind", s.Kind, "msg", s.Message, "answer", "yes")
			return true
		}
		fmt.Fprintf(c.out, "%s [y/N] ", s.Message)
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(c.out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
	return true
}
