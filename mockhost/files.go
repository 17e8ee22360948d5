package mockhost

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
	"golang.org/x/exp/maps"
)

const defaultMaxMatches = 100

// virtualFS is an in-memory tree of text files. Paths are cleaned with path.Clean, so "a/./b"
// and "a/b" name the same file; "." and "/" always exist.
type virtualFS struct {
	files map[string]string
	dirs  map[string]bool
}

func newVirtualFS() *virtualFS {
	return &virtualFS{files: make(map[string]string), dirs: map[string]bool{".": true, "/": true}}
}

func (fs *virtualFS) mkdirAll(dir string) (created bool) {
	for d := path.Clean(dir); !fs.dirs[d]; d = path.Dir(d) {
		fs.dirs[d] = true
		created = true
	}
	return created
}

func (fs *virtualFS) write(name, content string, createParents bool) (created bool, err error) {
	name = path.Clean(name)
	if fs.dirs[name] {
		return false, fmt.Errorf("%s is a directory", name)
	}
	if parent := path.Dir(name); !fs.dirs[parent] {
		if !createParents {
			return false, fmt.Errorf("directory %s does not exist", parent)
		}
		fs.mkdirAll(parent)
	}
	_, existed := fs.files[name]
	fs.files[name] = content
	return !existed, nil
}

// below lists the files and directories anywhere under dir, sorted.
func (fs *virtualFS) below(dir string) (files, dirs []string) {
	dir = path.Clean(dir)
	inside := func(p string) bool {
		return p != dir && (dir == "." && !path.IsAbs(p) || strings.HasPrefix(p, strings.TrimSuffix(dir, "/")+"/"))
	}
	for f := range fs.files {
		if inside(f) {
			files = append(files, f)
		}
	}
	for d := range fs.dirs {
		if d != "." && d != "/" && inside(d) {
			dirs = append(dirs, d)
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func (h *Host) registerFileTools() {
	h.addTool(mcp.NewTool("fileread",
		mcp.WithDescription("Reads and searches files in the host's workspace"),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("readFile", "readLines", "getStats", "grep")),
		mcp.WithString("path"),
		mcp.WithNumber("startLine"),
		mcp.WithNumber("endLine"),
		mcp.WithString("searchPath", mcp.Description("File or directory to grep")),
		mcp.WithString("pattern", mcp.Description("Regular expression")),
		mcp.WithString("outputMode", mcp.Enum("content", "files_with_matches", "count")),
		mcp.WithBoolean("caseInsensitive"),
		mcp.WithNumber("linesBefore"),
		mcp.WithNumber("linesAfter"),
		mcp.WithNumber("maxMatches"),
	), h.fileread)
	h.addTool(mcp.NewTool("filewrite",
		mcp.WithDescription("Writes files in the host's workspace"),
		mcp.WithString("mode", mcp.Required(), mcp.Enum(
			"writeFile", "writeLines", "appendFile", "appendLines",
			"createDirectory", "deleteFile", "countLines")),
		mcp.WithString("path", mcp.Required()),
		mcp.WithString("content"),
		mcp.WithArray("lines"),
		mcp.WithBoolean("createParents"),
	), h.filewrite)
}

func (h *Host) filewrite(c toolCall) *mcp.CallToolResult {
	s := h.state
	s.lock.Lock()
	defer s.lock.Unlock()
	fs := s.files

	name := c.str("path")
	if name == "" {
		return mcp.NewToolResultError("path is required")
	}
	name = path.Clean(name)
	createParents := cast.ToBool(c.args["createParents"])
	mode := c.str("mode")
	switch mode {
	case "writeFile", "writeLines":
		content := c.str("content")
		if mode == "writeLines" {
			lines, err := c.stringList("lines")
			if err != nil {
				return mcp.NewToolResultError(err.Error())
			}
			content = joinLines(lines)
		}
		created, err := fs.write(name, content, createParents)
		if err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return textResult(map[string]interface{}{
			"path":         name,
			"created":      created,
			"linesWritten": countLines(content),
			"bytesWritten": len(content),
		})
	case "appendFile", "appendLines":
		addition := c.str("content")
		if mode == "appendLines" {
			lines, err := c.stringList("lines")
			if err != nil {
				return mcp.NewToolResultError(err.Error())
			}
			addition = joinLines(lines)
		}
		existing := fs.files[name]
		if _, err := fs.write(name, existing+addition, createParents); err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return textResult(map[string]interface{}{
			"path":         name,
			"appended":     true,
			"linesWritten": countLines(addition),
			"bytesWritten": len(addition),
		})
	case "createDirectory":
		if _, isFile := fs.files[name]; isFile {
			return mcp.NewToolResultError(name + " is a file")
		}
		return textResult(map[string]interface{}{"path": name, "created": fs.mkdirAll(name)})
	case "deleteFile":
		if _, ok := fs.files[name]; !ok {
			return mcp.NewToolResultError("file not found: " + name)
		}
		delete(fs.files, name)
		return textResult(map[string]interface{}{"path": name, "deleted": true})
	case "countLines":
		content, ok := fs.files[name]
		if !ok {
			return mcp.NewToolResultError("file not found: " + name)
		}
		return textResult(map[string]interface{}{"path": name, "lineCount": countLines(content)})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q", mode))
	}
}

func (h *Host) fileread(c toolCall) *mcp.CallToolResult {
	s := h.state
	s.lock.Lock()
	defer s.lock.Unlock()
	fs := s.files

	mode := c.str("mode")
	if mode == "grep" {
		return grep(fs, c)
	}
	name := path.Clean(c.str("path"))
	if c.str("path") == "" {
		return mcp.NewToolResultError("path is required")
	}
	if mode == "getStats" && fs.dirs[name] {
		files, dirs := fs.below(name)
		total := 0
		for _, f := range files {
			total += len(fs.files[f])
		}
		return textResult(map[string]interface{}{
			"path":           name,
			"type":           "directory",
			"fileCount":      len(files),
			"directoryCount": len(dirs),
			"totalSize":      total,
		})
	}
	content, ok := fs.files[name]
	if !ok {
		return mcp.NewToolResultError("file not found: " + name)
	}
	switch mode {
	case "readFile":
		return textResult(map[string]interface{}{"path": name, "content": content, "lineCount": countLines(content)})
	case "readLines":
		lines := splitLines(content)
		first := cast.ToInt(c.args["startLine"])
		last := cast.ToInt(c.args["endLine"])
		if first == 0 {
			first = 1
		}
		if last == 0 || last > len(lines) {
			last = len(lines)
		}
		if first < 1 || first > last {
			return mcp.NewToolResultError(fmt.Sprintf("lines %d..%d are outside 1..%d", first, last, len(lines)))
		}
		return textResult(map[string]interface{}{
			"path":      name,
			"startLine": first,
			"endLine":   last,
			"lines":     lines[first-1 : last],
		})
	case "getStats":
		return textResult(map[string]interface{}{
			"path":      name,
			"type":      "file",
			"size":      len(content),
			"lineCount": countLines(content),
		})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q", mode))
	}
}

type grepMatch struct {
	File   string   `json:"file"`
	Line   int      `json:"line"`
	Text   string   `json:"text"`
	Before []string `json:"before,omitempty"`
	After  []string `json:"after,omitempty"`
}

func grep(fs *virtualFS, c toolCall) *mcp.CallToolResult {
	pattern := c.str("pattern")
	if pattern == "" {
		return mcp.NewToolResultError("pattern is required")
	}
	expr := pattern
	if cast.ToBool(c.args["caseInsensitive"]) {
		expr = "(?i)" + expr
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid pattern %q: %s", pattern, err))
	}
	searchPath := c.str("searchPath")
	if searchPath == "" {
		searchPath = "."
	}
	searchPath = path.Clean(searchPath)
	var targets []string
	switch {
	case fs.dirs[searchPath]:
		targets, _ = fs.below(searchPath)
	default:
		if _, ok := fs.files[searchPath]; !ok {
			return mcp.NewToolResultError("no such file or directory: " + searchPath)
		}
		targets = []string{searchPath}
	}
	before, after := cast.ToInt(c.args["linesBefore"]), cast.ToInt(c.args["linesAfter"])
	maxMatches := cast.ToInt(c.args["maxMatches"])
	if maxMatches <= 0 {
		maxMatches = defaultMaxMatches
	}

	var matches []grepMatch
	perFile := make(map[string]int)
	total := 0
	for _, f := range targets {
		lines := splitLines(fs.files[f])
		for i, line := range lines {
			if !rx.MatchString(line) {
				continue
			}
			total++
			perFile[f]++
			if len(matches) >= maxMatches {
				continue
			}
			m := grepMatch{File: f, Line: i + 1, Text: line}
			if before > 0 {
				m.Before = lines[max(0, i-before):i]
			}
			if after > 0 {
				m.After = lines[i+1 : min(len(lines), i+1+after)]
			}
			matches = append(matches, m)
		}
	}
	files := maps.Keys(perFile)
	if files == nil {
		files = []string{}
	}
	sort.Strings(files)

	switch mode := c.str("outputMode"); mode {
	case "", "content":
		if matches == nil {
			matches = []grepMatch{}
		}
		return textResult(map[string]interface{}{
			"pattern":      pattern,
			"matches":      matches,
			"totalMatches": total,
			"truncated":    total > len(matches),
		})
	case "files_with_matches":
		return textResult(map[string]interface{}{"pattern": pattern, "files": files})
	case "count":
		return textResult(map[string]interface{}{"pattern": pattern, "count": total, "files": perFile})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown outputMode %q", mode))
	}
}
