package core

// # Error Codes Reference
//
// Technical errors are mapped to user-facing messages with a code that
// members of staff can quote when they report a problem.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: membership number or CIN already belongs to another member
//	        Patterns: "duplicate key", "e11000"
//	DB004 - Connection refused: database unreachable
//	        Patterns: "connection refused", "server selection error"
//	DB005 - Connection reset
//	        Patterns: "connection reset"
//	DB006 - Timeout
//	        Patterns: "timeout", "context deadline exceeded"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date             Patterns: "invalid date"
//	VAL003 - Required field           Patterns: "required field"
//	VAL006 - Invalid enum             Patterns: "invalid enum"
//	VAL007 - Other schema violation   Patterns: "validation failed"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          Patterns: "file too large", "request body too large"
//	FILE002 - Unreadable spreadsheet  Patterns: "unreadable spreadsheet"
//	FILE004 - No file                 Patterns: "no file provided"
//	FILE005 - Empty file              Patterns: "empty file"
//	FILE006 - Not an image            Patterns: "unsupported image"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many rows            Patterns: "too many rows"
//	IMP002 - No sheet                 Patterns: "no sheet"
//	IMP003 - Busy                     Patterns: "too many imports"
//
// # Member Errors (MEM001-MEM099)
//
//	MEM001 - Not found                Patterns: "member not found"
//	MEM002 - Unscoped bulk delete     Patterns: "bulk delete requires"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited            Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log for the original error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns precede general ones.

import "strings"

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicate = UserMessage{
		Message: "This membership number or CIN is already registered",
		Action:  "Search for the existing member and update it instead",
		Code:    "DB001",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Try again, or split the spreadsheet into smaller files",
		Code:    "DB006",
	}
	msgUnreachable = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Upload a smaller file",
		Code:    "FILE001",
	}
)

var errorPatterns = []errorPattern{
	// Database
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "e11000", msg: msgDuplicate},
	{pattern: "connection refused", msg: msgUnreachable},
	{pattern: "server selection error", msg: msgUnreachable},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "context deadline exceeded", msg: msgTimeout},

	// Validation
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD, for example 2024-01-15",
			Code:    "VAL001",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Fill in the full name and membership date",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid enum",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Check the allowed values for gender, status and neighborhood",
			Code:    "VAL006",
		},
	},
	{
		pattern: "validation failed",
		msg: UserMessage{
			Message: "The member record is not valid",
			Action:  "Review the highlighted fields and try again",
			Code:    "VAL007",
		},
	},

	// Files
	{pattern: "file too large", msg: msgTooLarge},
	{pattern: "request body too large", msg: msgTooLarge},
	{
		pattern: "unreadable spreadsheet",
		msg: UserMessage{
			Message: "The file could not be read as a spreadsheet",
			Action:  "Save the file as .xlsx or UTF-8 .csv and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded sheet has no data rows",
			Action:  "Add at least one member below the header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported image",
		msg: UserMessage{
			Message: "Only image files can be used as a photo",
			Action:  "Upload a JPEG, PNG, GIF or WebP image",
			Code:    "FILE006",
		},
	},

	// Import
	{
		pattern: "too many rows",
		msg: UserMessage{
			Message: "The spreadsheet has too many rows",
			Action:  "Split the file into batches of at most 1000 members",
			Code:    "IMP001",
		},
	},
	{
		pattern: "no sheet",
		msg: UserMessage{
			Message: "The workbook has no sheet",
			Action:  "Put the members on the first sheet of the workbook",
			Code:    "IMP002",
		},
	},
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "Another import is in progress",
			Action:  "Please wait for it to finish and try again",
			Code:    "IMP003",
		},
	},

	// Members
	{
		pattern: "member not found",
		msg: UserMessage{
			Message: "Member not found",
			Action:  "The member may have been deleted. Refresh the list",
			Code:    "MEM001",
		},
	},
	{
		pattern: "bulk delete requires",
		msg: UserMessage{
			Message: "Refusing to delete every member",
			Action:  "Choose a filter or confirm the deletion explicitly",
			Code:    "MEM002",
		},
	},

	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
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
