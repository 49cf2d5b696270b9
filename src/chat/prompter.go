package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted signals a user-initiated abort of an interactive prompt.
// It always terminates the session; it is never retried.
var ErrInterrupted = errors.New("interrupted")

// Prompter is the blocking terminal interaction layer: line input,
// single/multi-select, and confirmation.
type Prompter interface {
	// Input reads one line of input. Returns ErrInterrupted on cancellation.
	Input(label string) (string, error)

	// Select asks the user to pick exactly one option, returning its index.
	Select(label string, options []string) (int, error)

	// MultiSelect asks the user to pick zero or more options.
	MultiSelect(label string, options []string) ([]int, error)

	// Confirm asks a yes/no question.
	Confirm(label string) (bool, error)
}

var (
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// StdinPrompter reads interactive input line by line. End of input (ctrl-d)
// is cancellation.
type StdinPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

var _ Prompter = (*StdinPrompter)(nil)

// NewStdinPrompter creates a prompter over the given reader and writer.
func NewStdinPrompter(in io.Reader, out io.Writer) *StdinPrompter {
	return &StdinPrompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (p *StdinPrompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrInterrupted
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Input reads one line of input.
func (p *StdinPrompter) Input(label string) (string, error) {
	fmt.Fprintf(p.out, "%s ", labelStyle.Render(label+">"))
	return p.readLine()
}

// Select prints numbered options and reads a choice.
func (p *StdinPrompter) Select(label string, options []string) (int, error) {
	fmt.Fprintln(p.out, labelStyle.Render(label))
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %s %s\n", optionStyle.Render(fmt.Sprintf("%d)", i+1)), opt)
	}

	for {
		fmt.Fprintf(p.out, "%s ", labelStyle.Render(">"))
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}

		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || choice < 1 || choice > len(options) {
			fmt.Fprintln(p.out, hintStyle.Render(fmt.Sprintf("enter a number between 1 and %d", len(options))))
			continue
		}
		return choice - 1, nil
	}
}

// MultiSelect prints numbered options and reads a comma-separated list of
// choices. An empty line selects nothing.
func (p *StdinPrompter) MultiSelect(label string, options []string) ([]int, error) {
	fmt.Fprintln(p.out, labelStyle.Render(label))
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %s %s\n", optionStyle.Render(fmt.Sprintf("%d)", i+1)), opt)
	}
	fmt.Fprintln(p.out, hintStyle.Render("comma-separated numbers, empty for none"))

	for {
		fmt.Fprintf(p.out, "%s ", labelStyle.Render(">"))
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return nil, nil
		}

		var picked []int
		valid := true
		seen := make(map[int]bool)
		for _, part := range strings.Split(line, ",") {
			choice, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || choice < 1 || choice > len(options) {
				valid = false
				break
			}
			if !seen[choice] {
				seen[choice] = true
				picked = append(picked, choice-1)
			}
		}
		if !valid {
			fmt.Fprintln(p.out, hintStyle.Render(fmt.Sprintf("enter numbers between 1 and %d, separated by commas", len(options))))
			continue
		}
		return picked, nil
	}
}

// Confirm asks a yes/no question; empty input means no.
func (p *StdinPrompter) Confirm(label string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s %s ", labelStyle.Render(label), hintStyle.Render("[y/N]"))
		line, err := p.readLine()
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		default:
			fmt.Fprintln(p.out, hintStyle.Render("answer y or n"))
		}
	}
}
