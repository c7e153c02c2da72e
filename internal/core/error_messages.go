// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Codes are grouped by category:
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Source unavailable: The file could not be opened
//	         Patterns: "source unavailable"
//	IMP002 - Unknown format: No reader is registered for this file type
//	         Patterns: "unknown reader"
//	IMP003 - Unreadable data: The file contents could not be decoded
//	         Patterns: "decode", "parquet"
//
// # Range Errors (RNG001-RNG099)
//
//	RNG001 - Invalid range: End row or column is before the start
//	         Patterns: "invalid range"
//
// # State Errors (STA001-STA099)
//
//	STA001 - Locked table: The destination table does not accept changes
//	         Patterns: "table is locked"
//	STA002 - Table not found: The destination table does not exist
//	         Patterns: "table not found"
//
// # Settings Errors (CFG001-CFG099)
//
//	CFG001 - Invalid settings: The settings document could not be read
//	         Patterns: "settings"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE004 - No file selected
//	FILE005 - Empty file
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Import cancelled
//	UPL002 - System busy
//	UPL003 - Import job not found
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for the
// original technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Import (IMP)
	{
		pattern: "source unavailable",
		msg: UserMessage{
			Message: "The file could not be opened",
			Action:  "Check that the file exists and is readable",
			Code:    "IMP001",
		},
	},
	{
		pattern: "unknown reader",
		msg: UserMessage{
			Message: "No reader is registered for this file type",
			Action:  "Choose one of the supported formats",
			Code:    "IMP002",
		},
	},

	// Range (RNG)
	{
		pattern: "invalid range",
		msg: UserMessage{
			Message: "The requested rows or columns do not exist",
			Action:  "Make sure the end row and end column are not before the start",
			Code:    "RNG001",
		},
	},

	// State (STA)
	{
		pattern: "table is locked",
		msg: UserMessage{
			Message: "The destination table does not accept changes",
			Action:  "Unlock the table or import into a new one",
			Code:    "STA001",
		},
	},
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "The destination table does not exist",
			Action:  "Create the table first or pick an existing one",
			Code:    "STA002",
		},
	},

	// File (FILE)
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to import",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with data rows",
			Code:    "FILE005",
		},
	},

	// Upload / job lifecycle (UPL)
	{
		pattern: "import cancelled",
		msg: UserMessage{
			Message: "Import was cancelled",
			Action:  "Start a new import when ready",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "Too many imports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "import not found",
		msg: UserMessage{
			Message: "Import job not found",
			Action:  "The job may have expired. Please start a new import",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Templates (TPL)
	{
		pattern: "template not found",
		msg: UserMessage{
			Message: "Import template not found",
			Action:  "Refresh the template list and pick another one",
			Code:    "TPL001",
		},
	},
	{
		pattern: "template already exists",
		msg: UserMessage{
			Message: "A template with this name already exists",
			Action:  "Choose a different name or update the existing template",
			Code:    "TPL002",
		},
	},

	// Validation (VAL)
	{
		pattern: "column index out of range",
		msg: UserMessage{
			Message: "The column does not exist",
			Action:  "Check the column name against the table",
			Code:    "VAL001",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "A required value is missing",
			Action:  "Fill in the highlighted fields and try again",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request is not valid",
			Action:  "Check the submitted fields and try again",
			Code:    "VAL003",
		},
	},

	// Decoding and settings come last: their patterns are broad.
	{
		pattern: "settings",
		msg: UserMessage{
			Message: "The settings document could not be read",
			Action:  "Check that the document contains an <asciiFilter> element",
			Code:    "CFG001",
		},
	},
	{
		pattern: "decode",
		msg: UserMessage{
			Message: "The file contents could not be decoded",
			Action:  "Check that the file matches the selected format",
			Code:    "IMP003",
		},
	},
	{
		pattern: "parquet",
		msg: UserMessage{
			Message: "The file contents could not be decoded",
			Action:  "Check that the file matches the selected format",
			Code:    "IMP003",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern rather than the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
