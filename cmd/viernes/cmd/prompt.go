package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errAborted is returned when input ends before the flow completes.
var errAborted = errors.New("aborted")

// prompter reads answers from the command's input. Passwords are read
// without echo when the input is a terminal.
type prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, reader: bufio.NewReader(in), out: out}
}

func (p *prompter) terminal() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// line prompts for a visible answer.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.reader.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && s != "":
		// Last line without a trailing newline.
	case errors.Is(err, io.EOF):
		fmt.Fprintln(p.out)
		return "", errAborted
	default:
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// secret prompts for a password. The caller owns and wipes the result.
func (p *prompter) secret(label string) ([]byte, error) {
	fd, ok := p.terminal()
	if !ok {
		s, err := p.line(label)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, err
	}
	return b, nil
}
