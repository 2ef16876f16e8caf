package hlt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/halite-fleet/pkg/halite"
)

// Process runs a bot binary as a subprocess and speaks the engine side of
// the protocol to it.
type Process struct {
	path string
	args []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exited chan struct{}

	mu     sync.Mutex
	closed bool

	name string
	sent []int
}

// NewProcess points at a bot binary. Nothing runs until Start.
func NewProcess(path string, args ...string) *Process {
	return &Process{path: path, args: args}
}

// Name is the bot name reported during Start.
func (p *Process) Name() string { return p.name }

// Start launches the bot, sends the init data for g's viewing player and
// waits for the bot's name.
func (p *Process) Start(ctx context.Context, g *halite.Game) error {
	p.cmd = exec.Command(p.path, p.args...)

	var err error
	p.stdin, err = p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("hlt: stdin pipe: %w", err)
	}
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("hlt: stdout pipe: %w", err)
	}
	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("hlt: start %s: %w", p.path, err)
	}

	p.lines = make(chan string, 1)
	p.exited = make(chan struct{})
	go func() {
		defer close(p.lines)
		s := bufio.NewScanner(stdout)
		s.Buffer(make([]byte, 64*1024), maxLineSize)
		for s.Scan() {
			p.lines <- s.Text()
		}
	}()
	go func() {
		p.cmd.Wait()
		close(p.exited)
	}()

	if err := WriteInit(p.stdin, g); err != nil {
		p.Close()
		return fmt.Errorf("hlt: write init: %w", err)
	}
	p.sent = HaliteSnapshot(g.Map)

	name, err := p.readLine(ctx)
	if err != nil {
		p.Close()
		return fmt.Errorf("hlt: waiting for bot name: %w", err)
	}
	p.name = strings.TrimSpace(name)
	return nil
}

// Turn sends the frame for g and returns the bot's commands. The context
// bounds how long the bot may think.
func (p *Process) Turn(ctx context.Context, g *halite.Game) ([]halite.Command, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("hlt: process is closed")
	}

	if err := WriteFrame(p.stdin, g, p.sent); err != nil {
		return nil, fmt.Errorf("hlt: write frame: %w", err)
	}
	line, err := p.readLine(ctx)
	if err != nil {
		// A late reply would be taken as the answer to the next frame, so a
		// bot that misses a turn is out for the rest of the game.
		log.Warn().Err(err).Str("bot", p.path).Int("turn", g.Turn).Msg("Bot missed its turn, ejecting")
		p.kill()
		return nil, fmt.Errorf("hlt: turn %d: %w", g.Turn, err)
	}
	return ParseCommands(line)
}

func (p *Process) kill() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.Close()
}

func (p *Process) readLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", fmt.Errorf("bot closed stdout")
		}
		return line, nil
	case <-ctx.Done():
		return "", fmt.Errorf("context canceled: %w", ctx.Err())
	}
}

// Close closes the bot's stdin and waits for it to exit, killing it after 3 seconds.
func (p *Process) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.lines != nil {
		// Unblock the reader if the bot wrote more than we asked for.
		go func() {
			for range p.lines {
			}
		}()
	}
	if p.exited != nil {
		select {
		case <-p.exited:
		case <-time.After(3 * time.Second):
			log.Warn().Str("bot", p.path).Msg("Bot did not exit within 3s, killing")
			if p.cmd != nil && p.cmd.Process != nil {
				p.cmd.Process.Kill()
			}
			<-p.exited
		}
	}
	return nil
}
