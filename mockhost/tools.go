package mockhost

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type toolCall struct {
	args    map[string]interface{}
	headers http.Header
}

func (c toolCall) number(name string) (float64, error) {
	v, ok := c.args[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("argument %q is not a number", name)
	}
	return f, nil
}

func (c toolCall) str(name string) string {
	return cast.ToString(c.args[name])
}

func (c toolCall) stringList(name string) ([]string, error) {
	v, ok := c.args[name]
	if !ok {
		return nil, fmt.Errorf("missing argument %q", name)
	}
	ret, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("argument %q is not a list of strings", name)
	}
	return ret, nil
}

// lineRange reads a [first, last] pair of 1-based line numbers. A last line of -1 means the end.
func (c toolCall) lineRange(name string, lineCount int) (int, int, error) {
	pair, err := cast.ToIntSliceE(c.args[name])
	if err != nil || len(pair) != 2 {
		return 0, 0, fmt.Errorf("%s must be two line numbers", name)
	}
	first, last := pair[0], pair[1]
	if last == -1 || last > lineCount {
		last = lineCount
	}
	if first < 1 || first > last {
		return 0, 0, fmt.Errorf("%s %v is outside 1..%d", name, pair, lineCount)
	}
	return first, last, nil
}

type toolHandler func(toolCall) *mcp.CallToolResult

type todoItem struct {
	ID       string `json:"id"`
	Task     string `json:"task"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

func (h *Host) addTool(tool mcp.Tool, handler toolHandler) {
	h.tools = append(h.tools, tool)
	h.handlers[tool.Name] = handler
}

func (h *Host) registerTools() {
	h.addTool(mcp.NewTool("calculate",
		mcp.WithDescription("Performs basic arithmetic"),
		mcp.WithString("operation", mcp.Required(), mcp.Enum("ADD", "SUBTRACT", "MULTIPLY", "DIVIDE")),
		mcp.WithNumber("a", mcp.Required()),
		mcp.WithNumber("b", mcp.Required()),
	), calculate)
	h.addTool(mcp.NewTool("add",
		mcp.WithDescription("Adds two numbers"),
		mcp.WithNumber("a", mcp.Required()),
		mcp.WithNumber("b", mcp.Required()),
	), add)
	h.addTool(mcp.NewTool("divide",
		mcp.WithDescription("Divides a by b; dividing by zero yields an error object"),
		mcp.WithNumber("a", mcp.Required()),
		mcp.WithNumber("b", mcp.Required()),
	), divide)
	h.addTool(mcp.NewTool("echo",
		mcp.WithDescription("Echoes the message back"),
		mcp.WithString("message", mcp.Required()),
	), echo)
	h.addTool(mcp.NewTool("memory",
		mcp.WithDescription("Stores small text files in memory"),
		mcp.WithString("command", mcp.Required(),
			mcp.Enum("create", "view", "str_replace", "insert", "delete", "rename")),
		mcp.WithString("path"),
		mcp.WithString("content"),
		mcp.WithString("old_str"),
		mcp.WithString("new_str"),
		mcp.WithNumber("insert_line", mcp.Description("Line after which to insert; 0 inserts at the top")),
		mcp.WithString("insert_text"),
		mcp.WithArray("view_range", mcp.WithNumberItems(), mcp.Description("First and last line, 1-based")),
		mcp.WithString("old_path"),
		mcp.WithString("new_path"),
	), h.memory)
	h.addTool(mcp.NewTool("todo",
		mcp.WithDescription("Manages a todo list"),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("add", "list", "update", "clearCompleted")),
		mcp.WithString("task"),
		mcp.WithString("priority", mcp.Enum(todoPriorities...)),
		mcp.WithString("status", mcp.Enum(todoStatuses...), mcp.Description("Only list todos with this status")),
		mcp.WithString("sort", mcp.Enum("date", "status", "priority", "alpha")),
		mcp.WithString("id"),
		mcp.WithString("newStatus", mcp.Enum(todoStatuses...)),
	), h.todo)
	h.registerFileTools()
	h.registerPlanner()
}

func textResult(v interface{}) *mcp.CallToolResult {
	switch v := v.(type) {
	case string:
		return mcp.NewToolResultText(v)
	case float64:
		return mcp.NewToolResultText(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return mcp.NewToolResultText(string(data))
	}
}

func calculate(c toolCall) *mcp.CallToolResult {
	a, err := c.number("a")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	b, err := c.number("b")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	switch strings.ToUpper(c.str("operation")) {
	case "ADD":
		return textResult(a + b)
	case "SUBTRACT":
		return textResult(a - b)
	case "MULTIPLY":
		return textResult(a * b)
	case "DIVIDE":
		if b == 0 {
			return mcp.NewToolResultError("Division by zero")
		}
		return textResult(a / b)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown operation %q", c.str("operation")))
	}
}

func add(c toolCall) *mcp.CallToolResult {
	a, err := c.number("a")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	b, err := c.number("b")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return textResult(a + b)
}

func divide(c toolCall) *mcp.CallToolResult {
	a, err := c.number("a")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	b, err := c.number("b")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	q := a / b
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return textResult(map[string]string{"error": "division by zero"})
	}
	return textResult(q)
}

func echo(c toolCall) *mcp.CallToolResult {
	out := "Echo: " + c.str("message")
	if len(c.headers) != 0 {
		names := maps.Keys(c.headers)
		sort.Strings(names)
		out += fmt.Sprintf(" | Headers: %d (%s)", len(names), strings.Join(names, ", "))
	}
	return textResult(out)
}

func (h *Host) memory(c toolCall) *mcp.CallToolResult {
	s := h.state
	s.lock.Lock()
	defer s.lock.Unlock()
	command := c.str("command")
	if command == "rename" {
		return s.renameMemory(c.str("old_path"), c.str("new_path"))
	}
	path := c.str("path")
	if path == "" {
		return mcp.NewToolResultError("path is required")
	}
	switch command {
	case "create":
		_, existed := s.memory[path]
		s.memory[path] = c.str("content")
		return textResult(map[string]interface{}{"path": path, "created": !existed})
	case "view":
		content, ok := s.memory[path]
		if !ok {
			entries := s.memoryBelow(path)
			if len(entries) == 0 {
				return mcp.NewToolResultError("file not found: " + path)
			}
			return textResult(map[string]interface{}{"path": path, "entries": entries})
		}
		if _, ranged := c.args["view_range"]; !ranged {
			return textResult(map[string]interface{}{"path": path, "content": content})
		}
		first, last, err := c.lineRange("view_range", len(splitLines(content)))
		if err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return textResult(map[string]interface{}{
			"path":    path,
			"content": strings.Join(splitLines(content)[first-1:last], "\n"),
			"range":   []int{first, last},
		})
	case "str_replace":
		content, ok := s.memory[path]
		if !ok {
			return mcp.NewToolResultError("file not found: " + path)
		}
		oldStr := c.str("old_str")
		if oldStr == "" || !strings.Contains(content, oldStr) {
			return mcp.NewToolResultError("old_str not found in " + path)
		}
		s.memory[path] = strings.Replace(content, oldStr, c.str("new_str"), 1)
		return textResult(map[string]interface{}{"path": path, "replaced": true})
	case "insert":
		content, ok := s.memory[path]
		if !ok {
			return mcp.NewToolResultError("file not found: " + path)
		}
		at, err := c.number("insert_line")
		if err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		lines := splitLines(content)
		n := int(at)
		if n < 0 || n > len(lines) {
			return mcp.NewToolResultError(fmt.Sprintf("insert_line %d is outside 0..%d", n, len(lines)))
		}
		lines = slices.Insert(lines, n, strings.Split(c.str("insert_text"), "\n")...)
		s.memory[path] = strings.Join(lines, "\n")
		return textResult(map[string]interface{}{"path": path, "inserted": true, "lineCount": len(lines)})
	case "delete":
		if _, ok := s.memory[path]; ok {
			delete(s.memory, path)
			return textResult(map[string]interface{}{"path": path, "deleted": true})
		}
		entries := s.memoryBelow(path)
		if len(entries) == 0 {
			return mcp.NewToolResultError("file not found: " + path)
		}
		for _, e := range entries {
			delete(s.memory, e)
		}
		return textResult(map[string]interface{}{"path": path, "deleted": true, "files": len(entries)})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown command %q", command))
	}
}

// memoryBelow lists the files under dir, which memory paths treat as a directory.
func (s *toolState) memoryBelow(dir string) []string {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var ret []string
	for p := range s.memory {
		if strings.HasPrefix(p, prefix) {
			ret = append(ret, p)
		}
	}
	sort.Strings(ret)
	return ret
}

func (s *toolState) renameMemory(oldPath, newPath string) *mcp.CallToolResult {
	if oldPath == "" || newPath == "" {
		return mcp.NewToolResultError("old_path and new_path are required")
	}
	content, ok := s.memory[oldPath]
	if !ok {
		return mcp.NewToolResultError("file not found: " + oldPath)
	}
	if _, taken := s.memory[newPath]; taken {
		return mcp.NewToolResultError("file already exists: " + newPath)
	}
	delete(s.memory, oldPath)
	s.memory[newPath] = content
	return textResult(map[string]interface{}{"old_path": oldPath, "new_path": newPath, "renamed": true})
}

// splitLines never returns an empty slice, so an empty file has one empty line.
func splitLines(content string) []string {
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

var (
	todoStatuses   = []string{"pending", "in_progress", "completed"}
	todoPriorities = []string{"critical", "high", "medium", "low"}
)

func (h *Host) todo(c toolCall) *mcp.CallToolResult {
	s := h.state
	s.lock.Lock()
	defer s.lock.Unlock()
	switch c.str("mode") {
	case "add":
		task := c.str("task")
		if task == "" {
			return mcp.NewToolResultError("task is required")
		}
		priority := strings.ToLower(c.str("priority"))
		if priority == "" {
			priority = "medium"
		}
		if !slices.Contains(todoPriorities, priority) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid priority %q", priority))
		}
		s.nextTodo++
		item := todoItem{ID: strconv.Itoa(s.nextTodo), Task: task, Priority: priority, Status: "pending"}
		s.todos = append(s.todos, item)
		return textResult(map[string]interface{}{"added": true, "todo": item})
	case "list":
		todos, err := listTodos(s.todos, c.str("status"), c.str("sort"))
		if err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return textResult(map[string]interface{}{"count": len(todos), "todos": todos})
	case "update":
		id, status := c.str("id"), c.str("newStatus")
		i := slices.IndexFunc(s.todos, func(t todoItem) bool { return t.ID == id })
		if i < 0 {
			return mcp.NewToolResultError("no todo with id " + id)
		}
		if !slices.Contains(todoStatuses, status) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid status %q", status))
		}
		s.todos[i].Status = status
		return textResult(map[string]interface{}{"updated": true, "todo": s.todos[i]})
	case "clearCompleted":
		before := len(s.todos)
		s.todos = slices.DeleteFunc(s.todos, func(t todoItem) bool { return t.Status == "completed" })
		return textResult(map[string]interface{}{"cleared": before - len(s.todos)})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q", c.str("mode")))
	}
}

// listTodos filters by status if one is given, then sorts. "date", or no sort, keeps the order
// the todos were added in.
func listTodos(all []todoItem, status, order string) ([]todoItem, error) {
	todos := make([]todoItem, 0, len(all))
	if status != "" && !slices.Contains(todoStatuses, status) {
		return nil, fmt.Errorf("invalid status filter %q", status)
	}
	for _, t := range all {
		if status == "" || t.Status == status {
			todos = append(todos, t)
		}
	}
	var less func(a, b todoItem) bool
	switch order {
	case "", "date":
		return todos, nil
	case "status":
		less = func(a, b todoItem) bool {
			return slices.Index(todoStatuses, a.Status) < slices.Index(todoStatuses, b.Status)
		}
	case "priority":
		less = func(a, b todoItem) bool {
			return slices.Index(todoPriorities, a.Priority) < slices.Index(todoPriorities, b.Priority)
		}
	case "alpha":
		less = func(a, b todoItem) bool { return strings.ToLower(a.Task) < strings.ToLower(b.Task) }
	default:
		return nil, fmt.Errorf("invalid sort %q", order)
	}
	sort.SliceStable(todos, func(i, j int) bool { return less(todos[i], todos[j]) })
	return todos, nil
}
