package iocli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio реализует IO поверх произвольных reader/writer.
// Для терминального stdin пароль читается через x/term без эха.
type Stdio struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // -1, если ввод не файл
}

// NewStdio возвращает IO для os.Stdin и os.Stdout
func NewStdio() IO {
	return New(os.Stdin, os.Stdout)
}

// New создает IO для заданных потоков
func New(in io.Reader, out io.Writer) *Stdio {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Stdio{in: bufio.NewReader(in), out: out, fd: fd}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	return s.readLine()
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)
	if s.fd < 0 || !term.IsTerminal(s.fd) {
		return s.readLine()
	}

	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

// readLine читает строку до перевода строки. Последняя строка без \n тоже считается.
func (s *Stdio) readLine() (string, error) {
	input, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && input != "" {
			return strings.TrimSpace(input), nil
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}
