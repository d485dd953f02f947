package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sharetube/watchsync/internal/agent"
	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/simplayer"
)

const usage = "commands: url <watch url> | play | pause | seek <seconds> | end | state | link | quit"

type console struct {
	in     *bufio.Scanner
	out    io.Writer
	agent  *agent.Agent
	player *simplayer.Player
	link   string
}

func newConsole(in io.Reader, out io.Writer, a *agent.Agent, p *simplayer.Player, link string) *console {
	return &console{
		in:     bufio.NewScanner(in),
		out:    out,
		agent:  a,
		player: p,
		link:   link,
	}
}

// run executes commands until quit, end of input or ctx cancellation.
func (c *console) run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for c.in.Scan() {
			lines <- c.in.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return c.in.Err()
			}
			if quit := c.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "url":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: url <watch url>")
			return false
		}
		if err := c.agent.ChangeVideoURL(ctx, args[0]); err != nil {
			fmt.Fprintf(c.out, "error: %s\n", err)
		}
	case "play":
		c.player.Play()
	case "pause":
		c.player.Pause()
	case "seek":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: seek <seconds>")
			return false
		}
		seconds, err := strconv.ParseFloat(args[0], 64)
		if err != nil || seconds < 0 {
			fmt.Fprintf(c.out, "invalid position %q\n", args[0])
			return false
		}
		c.seek(ctx, seconds)
	case "end":
		c.player.End()
	case "state":
		fmt.Fprintf(c.out, "%s: video=%q status=%s time=%.1f\n",
			c.agent.State(), c.player.VideoID(), c.player.Status(), c.player.CurrentTime())
	case "link":
		fmt.Fprintln(c.out, c.link)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintln(c.out, usage)
	}

	return false
}

// seek moves the playhead and reports the current status the way a player
// does after a user seek.
func (c *console) seek(ctx context.Context, seconds float64) {
	c.player.Seek(seconds)

	status := c.player.Status()
	if status == domain.PlayerStateUnstarted {
		return
	}
	if err := c.agent.HandlePlayerStateChange(ctx, status); err != nil {
		fmt.Fprintf(c.out, "error: %s\n", err)
	}
}
