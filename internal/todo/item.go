package todo

import "fmt"

// Item is a todo entry as served by the todo service.
// The service uses capitalized JSON keys.
type Item struct {
	ID          int    `json:"Id"`
	Description string `json:"Description"`
	Completed   bool   `json:"Completed"`
}

func (i Item) String() string {
	state := "incomplete"
	if i.Completed {
		state = "completed"
	}
	return fmt.Sprintf("#%d %q (%s)", i.ID, i.Description, state)
}

// Encoding selects how request bodies are sent to the service.
type Encoding string

const (
	// EncodingForm sends application/x-www-form-urlencoded bodies.
	EncodingForm Encoding = "form"
	// EncodingJSON sends application/json bodies.
	EncodingJSON Encoding = "json"
)

// ParseEncoding validates an encoding name. An empty name selects EncodingForm.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingForm:
		return EncodingForm, nil
	case EncodingJSON:
		return EncodingJSON, nil
	default:
		return "", fmt.Errorf("invalid encoding '%s', must be 'form' or 'json'", s)
	}
}

// Paths of the todo REST surface.
const (
	PathTodo           = "/todo"
	PathTodoCompleted  = "/todo-completed"
	PathTodoIncomplete = "/todo-incomplete"
)

// ItemPath returns the path addressing a single item.
func ItemPath(id int) string {
	return fmt.Sprintf("%s/%d", PathTodo, id)
}

// ListPath returns the collection path for the given completion state.
func ListPath(completed bool) string {
	if completed {
		return PathTodoCompleted
	}
	return PathTodoIncomplete
}
