package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/lookout/pkg/domain"
)

// JSONHandler implements IOHandler for JSON-Lines communication, for hosts
// that drive the chat loop programmatically.
//
// Each Output call emits one line holding the array of actions. Input accepts
// a JSON string ("hello"), an object ({"input": "hello"}) or plain text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder

	mu sync.Mutex
}

type jsonInput struct {
	Input string `json:"input"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, actions []domain.ActionRequest) (bool, error) {
	if len(actions) == 0 {
		return false, nil
	}

	h.mu.Lock()
	err := h.Encoder.Encode(actions)
	h.mu.Unlock()
	if err != nil {
		return false, err
	}

	for _, act := range actions {
		if act.Type == domain.ActionRequestInput {
			return true, nil
		}
	}
	return false, nil
}

// Input reads one line. Blocking reads do not observe ctx; hosts close the
// stream to stop the loop.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimRight(text, "\r\n")

	var str string
	if err := json.Unmarshal([]byte(text), &str); err == nil {
		return str, nil
	}
	var obj jsonInput
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj.Input, nil
	}
	return text, nil
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := h.Output(ctx, []domain.ActionRequest{{Type: domain.ActionSystemMessage, Payload: msg}})
	return err
}
