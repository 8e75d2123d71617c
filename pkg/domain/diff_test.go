package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func msg(id string, role Role, content string) Message {
	return Message{ID: id, Role: role, Content: content}
}

func TestDiff(t *testing.T) {
	active := StatusActive
	done := StatusDone

	tests := []struct {
		name         string
		old          *State
		new          *State
		wantNil      bool
		wantAppended int
		wantStatus   *ExecutionStatus
		wantVisited  []string
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &State{
				ThreadID: "1",
				Status:   StatusActive,
				Messages: []Message{msg("a", RoleUser, "hi")},
				History:  []string{"agent"},
			},
			wantAppended: 1,
			wantStatus:   &active,
			wantVisited:  []string{"agent"},
		},
		{
			name: "No Changes",
			old: &State{
				ThreadID: "1",
				Status:   StatusActive,
				Messages: []Message{msg("a", RoleUser, "hi")},
			},
			new: &State{
				ThreadID: "1",
				Status:   StatusActive,
				Messages: []Message{msg("a", RoleUser, "hi")},
			},
			wantNil: true,
		},
		{
			name: "Append Reply And Finish",
			old: &State{
				ThreadID:      "1",
				CurrentNodeID: "agent",
				Status:        StatusRunning,
				Messages:      []Message{msg("a", RoleUser, "hi")},
				History:       []string{"agent"},
			},
			new: &State{
				ThreadID:      "1",
				CurrentNodeID: "agent",
				Status:        StatusDone,
				Messages:      []Message{msg("a", RoleUser, "hi"), msg("b", RoleAssistant, "hello")},
				History:       []string{"agent", "tools"},
			},
			wantAppended: 1,
			wantStatus:   &done,
			wantVisited:  []string{"tools"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Diff(tt.old, tt.new)
			if err != nil {
				t.Fatalf("Diff() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Diff() = nil, want diff")
			}
			if len(got.Appended) != tt.wantAppended {
				t.Errorf("Diff().Appended = %d messages, want %d", len(got.Appended), tt.wantAppended)
			}
			if !equalPtr(got.Status, tt.wantStatus) {
				t.Errorf("Diff().Status = %v, want %v", got.Status, tt.wantStatus)
			}
			if strings.Join(got.Visited, ",") != strings.Join(tt.wantVisited, ",") {
				t.Errorf("Diff().Visited = %v, want %v", got.Visited, tt.wantVisited)
			}
		})
	}
}

func TestDiff_RejectsRewrites(t *testing.T) {
	old := &State{Messages: []Message{msg("a", RoleUser, "hi"), msg("b", RoleAssistant, "hello")}}

	t.Run("Dropped Message", func(t *testing.T) {
		_, err := Diff(old, &State{Messages: []Message{msg("a", RoleUser, "hi")}})
		if !errors.Is(err, ErrHistoryRewritten) {
			t.Errorf("expected ErrHistoryRewritten, got %v", err)
		}
	})

	t.Run("Mutated Message", func(t *testing.T) {
		_, err := Diff(old, &State{Messages: []Message{msg("a", RoleUser, "hi"), msg("b", RoleAssistant, "edited")}})
		if !errors.Is(err, ErrHistoryRewritten) {
			t.Errorf("expected ErrHistoryRewritten, got %v", err)
		}
	})
}

func TestDiffJSONSerialization(t *testing.T) {
	s1 := &State{ThreadID: "1", Messages: []Message{msg("a", RoleUser, "hi")}}
	s2 := s1.Clone()
	s2.Append(msg("b", RoleAssistant, "hello"))

	diff, err := Diff(s1, s2)
	if err != nil {
		t.Fatal(err)
	}

	bytes, _ := json.Marshal(diff)
	if strings.Contains(string(bytes), `"visited"`) {
		t.Errorf("JSON should not contain 'visited' when empty, got: %s", string(bytes))
	}
	if !strings.Contains(string(bytes), `"hello"`) {
		t.Errorf("JSON should contain the appended message, got: %s", string(bytes))
	}
}

func TestState_CloneIsolation(t *testing.T) {
	s := NewState("1")
	s.Append(NewUserMessage("hi"))

	c := s.Clone()
	c.Append(NewAssistantMessage("hello"))

	if len(s.Messages) != 1 {
		t.Errorf("source mutated by clone append: %d messages", len(s.Messages))
	}
	last, ok := c.LastMessage()
	if !ok || last.Role != RoleAssistant {
		t.Errorf("LastMessage() = %+v, want assistant", last)
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
