package runner

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB, plenty for a chat line.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default.
	EnvMaxInputSize = "LOOKOUT_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// ansiSequence matches CSI escape sequences (colors, cursor movement) pasted into the terminal.
var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// Sanitizer enforces the size limit and strips control characters from operator input.
type Sanitizer struct {
	MaxSize int
}

// NewSanitizer reads the size limit from EnvMaxInputSize, falling back to DefaultMaxInputSize.
func NewSanitizer() Sanitizer {
	size := DefaultMaxInputSize
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			size = n
		}
	}
	return Sanitizer{MaxSize: size}
}

// Clean validates and normalizes one line of input.
// Oversized input is rejected rather than truncated.
func (s Sanitizer) Clean(input string) (string, error) {
	if s.MaxSize > 0 && len(input) > s.MaxSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), s.MaxSize)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}

	input = ansiSequence.ReplaceAllString(input, "")
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

// SanitizeInput cleans input with the limit configured in the environment.
func SanitizeInput(input string) (string, error) {
	return NewSanitizer().Clean(input)
}

// isUnsafeControl keeps newline, tab and carriage return; everything else
// (ESC, NUL, BEL, ...) can corrupt the terminal or the logs.
func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
