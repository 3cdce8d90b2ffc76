package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// maxStderr bounds the stderr excerpt carried in errors.
const maxStderr = 512

// Command evaluates an external program once per combination. Arguments are
// written to stdin as a JSON object; the program prints the scalar result on
// stdout, either as a bare number or as {"result": <number>}.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// NewCommand splits a shell-free command line into a Command.
func NewCommand(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, &sensitivity.ConfigurationError{Msg: "empty command"}
	}
	return &Command{Path: fields[0], Args: fields[1:]}, nil
}

// Func returns a sensitivity.Func running the command under ctx.
func (c *Command) Func(ctx context.Context) sensitivity.Func {
	return func(a sensitivity.Args) (float64, error) {
		return c.Run(ctx, a)
	}
}

// Run executes the command for one argument set.
func (c *Command) Run(ctx context.Context, a sensitivity.Args) (float64, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return 0, fmt.Errorf("encode arguments: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr] + "..."
		}
		if msg != "" {
			return 0, fmt.Errorf("%s: %w: %s", c.Path, err, msg)
		}
		return 0, fmt.Errorf("%s: %w", c.Path, err)
	}
	return parseResult(stdout.Bytes())
}

func parseResult(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, fmt.Errorf("command produced no output")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	var wrapped struct {
		Result *float64 `json:"result"`
	}
	if err := json.Unmarshal([]byte(s), &wrapped); err != nil || wrapped.Result == nil {
		if len(s) > 64 {
			s = s[:64] + "..."
		}
		return 0, fmt.Errorf("command output %q is not a scalar", s)
	}
	return *wrapped.Result, nil
}
