package a2a

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

/*
TaskState enumerates the mutually-exclusive states a task may be in.
Rejected and AuthRequired are initial-reject states: a task never
transitions into them from Working. Rejected is terminal; AuthRequired is
not (see Terminal).
*/
type TaskState string

const (
	TaskStateSubmitted    TaskState = "submitted"
	TaskStateWorking      TaskState = "working"
	TaskStateInputReq     TaskState = "input-required"
	TaskStateCompleted    TaskState = "completed"
	TaskStateCanceled     TaskState = "canceled"
	TaskStateFailed       TaskState = "failed"
	TaskStateRejected     TaskState = "rejected"
	TaskStateAuthRequired TaskState = "auth-required"
)

// Terminal reports whether a state admits no further transitions.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected:
		return true
	default:
		return false
	}
}

type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskError is recorded when a task transitions to Failed: a human-readable
// message plus a machine-checkable kind (e.g. "agent_error", "timeout").
type TaskError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

/*
Artifact is a named, structured output attached to a task. Index/Append/
LastChunk support incremental artifact streaming (successive chunks of the
same logical artifact share an ID and increasing Index).
*/
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Index       int            `json:"index,omitempty"`
	Append      bool           `json:"append,omitempty"`
	LastChunk   bool           `json:"lastChunk,omitempty"`
}

func NewArtifact(name string, parts ...Part) Artifact {
	return Artifact{
		ArtifactID: uuid.New().String(),
		Name:       &name,
		Parts:      parts,
	}
}

// Task is the durable record of an asynchronous unit of agent work.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Error     *TaskError     `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewTask(contextID string) *Task {
	if contextID == "" {
		contextID = uuid.New().String()
	}

	return &Task{
		ID:        uuid.New().String(),
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC(),
		},
		History:   make([]Message, 0),
		Artifacts: make([]Artifact, 0),
		Metadata:  make(map[string]any),
	}
}

// ToStatus transitions the task to a new state, rejecting any attempt to
// leave a terminal state. Callers must already hold whatever lock guards
// the task (the task store serializes this per task_id).
func (task *Task) ToStatus(state TaskState, message *Message) error {
	if task.Status.State.Terminal() {
		return fmt.Errorf("task %s is in terminal state %s, cannot transition to %s", task.ID, task.Status.State, state)
	}

	log.Info("task status update", "taskId", task.ID, "from", task.Status.State, "to", state)

	task.Status = TaskStatus{
		State:     state,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	return nil
}

// Fail marks the task Failed and records the error kind/message.
func (task *Task) Fail(kind string, err error) error {
	if ferr := task.ToStatus(TaskStateFailed, nil); ferr != nil {
		return ferr
	}

	task.Error = &TaskError{Kind: kind, Message: err.Error()}
	return nil
}

func (task *Task) LastMessage() *Message {
	if len(task.History) == 0 {
		return nil
	}

	return &task.History[len(task.History)-1]
}

func (task *Task) AppendHistory(message Message) {
	task.History = append(task.History, message)
}

func (task *Task) AppendArtifact(artifact Artifact) {
	task.Artifacts = append(task.Artifacts, artifact)
}

// Snapshot returns a deep-enough copy safe to hand to callers outside the
// store's lock (slices are re-sliced, not aliased for append-in-place).
func (task *Task) Snapshot() *Task {
	cp := *task
	cp.History = append([]Message(nil), task.History...)
	cp.Artifacts = append([]Artifact(nil), task.Artifacts...)
	return &cp
}

/*
TaskStatusUpdateEvent is sent over SSE when the agent wishes to inform the
client of a status transition.
*/
type TaskStatusUpdateEvent struct {
	TaskID   string         `json:"taskId"`
	Status   TaskStatus     `json:"status"`
	Final    bool           `json:"final"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

/*
TaskArtifactUpdateEvent is emitted when a new or updated artifact is
available for a task.
*/
type TaskArtifactUpdateEvent struct {
	TaskID   string         `json:"taskId"`
	Artifact Artifact       `json:"artifact"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (task *Task) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)

	indent := "   "
	bullet := "│ "

	sb.WriteString(headerStyle.Render("Task") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(task.ID) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Context ID: ") + valueStyle.Render(task.ContextID) + "\n")

	sb.WriteString("\n" + sectionStyle.Render("Status") + "\n")
	sb.WriteString(bullet + labelStyle.Render("State: ") + valueStyle.Render(string(task.Status.State)) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Timestamp: ") + valueStyle.Render(task.Status.Timestamp.Format(time.RFC3339)) + "\n")
	if task.Error != nil {
		sb.WriteString(bullet + labelStyle.Render("Error: ") + valueStyle.Render(fmt.Sprintf("%s: %s", task.Error.Kind, task.Error.Message)) + "\n")
	}

	if len(task.History) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("History") + "\n")
		for i, message := range task.History {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Message %d", i+1)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Role: ") + valueStyle.Render(string(message.Role)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Content: ") + valueStyle.Render(message.String()) + "\n")
		}
	}

	if len(task.Artifacts) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Artifacts") + "\n")
		for i, artifact := range task.Artifacts {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Artifact %d", i+1)) + "\n")
			if artifact.Name != nil {
				sb.WriteString(bullet + indent + labelStyle.Render("Name: ") + valueStyle.Render(*artifact.Name) + "\n")
			}
		}
	}

	if len(task.Metadata) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Metadata") + "\n")
		keys := make([]string, 0, len(task.Metadata))
		for k := range task.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(bullet + labelStyle.Render(k+": ") + valueStyle.Render(fmt.Sprintf("%v", task.Metadata[k])) + "\n")
		}
	}

	return sb.String()
}
