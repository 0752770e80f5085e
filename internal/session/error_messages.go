package session

import (
	"strings"
)

// UserMessage pairs a plain-language description of a failure with the
// action most likely to resolve it. Code is a stable reference users can
// quote when asking for help.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps fragments of engine error text (case-insensitive)
// onto support guidance. The first matching pattern wins, so specific
// fragments come before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Engine Errors (ENG001-ENG005)
	// Raised by the SQL engine while running a command.
	// =========================================================================
	{
		pattern: "catalog error",
		msg: UserMessage{
			Message: "Table or view not found",
			Action:  "Verify the name against the table list or re-import the file",
			Code:    "ENG001",
		},
	},
	{
		pattern: "binder error",
		msg: UserMessage{
			Message: "Column not found",
			Action:  "Check the column name against the table schema",
			Code:    "ENG002",
		},
	},
	{
		pattern: "parser error",
		msg: UserMessage{
			Message: "The engine rejected the generated SQL",
			Action:  "Check filter operators and column names",
			Code:    "ENG003",
		},
	},
	{
		pattern: "conversion error",
		msg: UserMessage{
			Message: "A value did not match the column's type",
			Action:  "Check the filter value against the column type",
			Code:    "ENG004",
		},
	},
	{
		pattern: "out of memory",
		msg: UserMessage{
			Message: "The engine ran out of memory",
			Action:  "Raise the memory limit or import a smaller file",
			Code:    "ENG005",
		},
	},
	{
		pattern: "memory limit",
		msg: UserMessage{
			Message: "The engine ran out of memory",
			Action:  "Raise the memory limit or import a smaller file",
			Code:    "ENG005",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE002)
	// Raised while opening or parsing a file on disk.
	// =========================================================================
	{
		pattern: "could not open file",
		msg: UserMessage{
			Message: "The file could not be opened",
			Action:  "Verify the path and its permissions",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The file could not be opened",
			Action:  "Verify the path and its permissions",
			Code:    "FILE001",
		},
	},
	{
		pattern: "sniffing file",
		msg: UserMessage{
			Message: "The file could not be parsed",
			Action:  "Check the delimiter, quoting and encoding",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid input error",
		msg: UserMessage{
			Message: "The file could not be parsed",
			Action:  "Check the delimiter, quoting and encoding",
			Code:    "FILE002",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// Raised when the caller abandons or outlives a command.
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Retry when ready",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Retry with a smaller file or a longer timeout",
			Code:    "REQ002",
		},
	},
}

// Hint maps an error onto support guidance. The second return is false
// when no known pattern matches; callers then surface the raw error text
// alone.
func Hint(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}
