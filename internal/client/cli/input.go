package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetMultiline prints a prompt to w and reads multiple lines until an empty
// line is entered (i.e., the user presses Enter twice). The trailing newline
// on each line is trimmed and the collected text is joined with '\n'.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if line == "" || err != nil {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// GetFloat reads a number. An empty answer gives nil so the caller can tell
// a missing value from zero.
func GetFloat(reader *bufio.Reader, prompt string, w io.Writer) (*float64, error) {
	s, err := GetSimpleText(reader, prompt, w)
	if err != nil || s == "" {
		return nil, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &v, nil
}

// GetInt is GetFloat for whole numbers.
func GetInt(reader *bufio.Reader, prompt string, w io.Writer) (*int, error) {
	s, err := GetSimpleText(reader, prompt, w)
	if err != nil || s == "" {
		return nil, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a whole number", s)
	}
	return &v, nil
}

// GetDateTime reads a timestamp in RFC 3339 or "2006-01-02 15:04" local
// time. An empty answer means now.
func GetDateTime(reader *bufio.Reader, prompt string, w io.Writer, now time.Time) (time.Time, error) {
	s, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return now, nil
	}
	return ParseDateTime(s)
}

// ParseDateTime accepts RFC 3339 or "2006-01-02 15:04" in local time.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q, use 2006-01-02T15:04:05Z07:00 or 2006-01-02 15:04", s)
}

// Confirm asks a yes/no question; only "y" or "yes" count as yes.
func Confirm(reader *bufio.Reader, prompt string, w io.Writer) (bool, error) {
	s, err := GetSimpleText(reader, prompt+" [y/N]", w)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
