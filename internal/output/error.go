package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	mserr "github.com/mrz1836/multisecret/pkg/errors"
)

// ErrorOutput is the JSON envelope of a failed command.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// NewErrorDetail flattens err. Errors outside the domain taxonomy become
// GENERAL_ERROR with their message preserved.
func NewErrorDetail(err error) ErrorDetail {
	var me *mserr.MultisecretError
	if errors.As(err, &me) {
		return ErrorDetail{
			Code:       me.Code,
			Message:    me.Message,
			Details:    me.Details,
			Suggestion: me.Suggestion,
			ExitCode:   me.ExitCode,
		}
	}
	return ErrorDetail{
		Code:     mserr.ErrGeneral.Code,
		Message:  err.Error(),
		ExitCode: mserr.ExitGeneral,
	}
}

// FormatError writes err in the given format. Nil errors write nothing.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	detail := NewErrorDetail(err)
	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: detail})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", detail.Message)
	if len(detail.Details) > 0 {
		keys := make([]string, 0, len(detail.Details))
		for k := range detail.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, detail.Details[k])
		}
	}
	if detail.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", detail.Suggestion)
	}

	_, werr := io.WriteString(w, sb.String())
	return werr
}

// FormatSuccess formats a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
