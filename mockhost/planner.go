package mockhost

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
	"golang.org/x/exp/slices"
)

type planTask struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Status   string      `json:"status"`
	Subtasks []*planTask `json:"subtasks,omitempty"`
}

type plan struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Tasks       []*planTask `json:"tasks"`
	lastTask    int
}

type planProgress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// walk visits tasks depth first, each parent before its subtasks, until visit returns false.
func walk(tasks []*planTask, visit func(*planTask) bool) bool {
	for _, t := range tasks {
		if !visit(t) || !walk(t.Subtasks, visit) {
			return false
		}
	}
	return true
}

func (p *plan) task(id string) *planTask {
	var found *planTask
	walk(p.Tasks, func(t *planTask) bool {
		if t.ID == id {
			found = t
		}
		return found == nil
	})
	return found
}

func (p *plan) addTask(title string) *planTask {
	p.lastTask++
	t := &planTask{ID: strconv.Itoa(p.lastTask), Title: title, Status: "pending"}
	p.Tasks = append(p.Tasks, t)
	return t
}

func (p *plan) progress() planProgress {
	var ret planProgress
	walk(p.Tasks, func(t *planTask) bool {
		ret.Total++
		if t.Status == "completed" {
			ret.Completed++
		}
		return true
	})
	return ret
}

func (p *plan) details() map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"tasks":       p.Tasks,
		"progress":    p.progress(),
	}
}

func (h *Host) registerPlanner() {
	h.addTool(mcp.NewTool("planner",
		mcp.WithDescription("Breaks work into plans made of tasks and subtasks"),
		mcp.WithString("mode", mcp.Required(), mcp.Enum(
			"createPlan", "listPlans", "getPlan", "deletePlan",
			"addTask", "addSubtask", "updateTask", "getNextTask")),
		mcp.WithString("planId"),
		mcp.WithString("planName"),
		mcp.WithString("planDescription"),
		mcp.WithArray("initialTasks", mcp.Description("Tasks as {title} objects or plain titles")),
		mcp.WithString("taskId"),
		mcp.WithString("taskTitle"),
		mcp.WithString("parentTaskId"),
		mcp.WithString("subtaskTitle"),
		mcp.WithString("status", mcp.Enum(todoStatuses...)),
	), h.planner)
}

func (h *Host) planner(c toolCall) *mcp.CallToolResult {
	s := h.state
	s.lock.Lock()
	defer s.lock.Unlock()

	mode := c.str("mode")
	switch mode {
	case "createPlan":
		name := c.str("planName")
		if name == "" {
			return mcp.NewToolResultError("planName is required")
		}
		p := &plan{ID: uuid.NewString(), Name: name, Description: c.str("planDescription"), Tasks: []*planTask{}}
		for _, item := range cast.ToSlice(c.args["initialTasks"]) {
			title := cast.ToString(item)
			if m, ok := item.(map[string]interface{}); ok {
				title = cast.ToString(m["title"])
			}
			if title == "" {
				return mcp.NewToolResultError("every initial task needs a title")
			}
			p.addTask(title)
		}
		s.plans = append(s.plans, p)
		return textResult(p.details())
	case "listPlans":
		summaries := make([]map[string]interface{}, 0, len(s.plans))
		for _, p := range s.plans {
			summaries = append(summaries, map[string]interface{}{
				"id": p.ID, "name": p.Name, "progress": p.progress(),
			})
		}
		return textResult(map[string]interface{}{"plans": summaries})
	}

	id := c.str("planId")
	i := slices.IndexFunc(s.plans, func(p *plan) bool { return p.ID == id })
	if i < 0 {
		return mcp.NewToolResultError("no plan with id " + id)
	}
	p := s.plans[i]
	switch mode {
	case "getPlan":
		return textResult(p.details())
	case "deletePlan":
		s.plans = slices.Delete(s.plans, i, i+1)
		return textResult(map[string]interface{}{"id": id, "deleted": true})
	case "addTask":
		title := c.str("taskTitle")
		if title == "" {
			return mcp.NewToolResultError("taskTitle is required")
		}
		return textResult(map[string]interface{}{"planId": id, "task": p.addTask(title)})
	case "addSubtask":
		parent := p.task(c.str("parentTaskId"))
		if parent == nil {
			return mcp.NewToolResultError("no task with id " + c.str("parentTaskId"))
		}
		title := c.str("subtaskTitle")
		if title == "" {
			return mcp.NewToolResultError("subtaskTitle is required")
		}
		sub := &planTask{
			ID:     fmt.Sprintf("%s.%d", parent.ID, len(parent.Subtasks)+1),
			Title:  title,
			Status: "pending",
		}
		parent.Subtasks = append(parent.Subtasks, sub)
		return textResult(map[string]interface{}{"planId": id, "parentTaskId": parent.ID, "task": sub})
	case "updateTask":
		t := p.task(c.str("taskId"))
		if t == nil {
			return mcp.NewToolResultError("no task with id " + c.str("taskId"))
		}
		status := c.str("status")
		if !slices.Contains(todoStatuses, status) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid status %q", status))
		}
		t.Status = status
		return textResult(map[string]interface{}{"planId": id, "task": t, "progress": p.progress()})
	case "getNextTask":
		var next *planTask
		walk(p.Tasks, func(t *planTask) bool {
			if t.Status != "completed" {
				next = t
			}
			return next == nil
		})
		if next == nil {
			return textResult(map[string]interface{}{"planId": id, "done": true})
		}
		return textResult(map[string]interface{}{"planId": id, "task": next})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q", mode))
	}
}
