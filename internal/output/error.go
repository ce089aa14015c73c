package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	sandboxerr "github.com/mrz1836/phantom-sandbox/pkg/errors"
)

// ErrorOutput is the JSON envelope for a failed command.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed command.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// describe flattens err into an ErrorDetail.
func describe(err error) ErrorDetail {
	var se *sandboxerr.SandboxError
	if !errors.As(err, &se) {
		return ErrorDetail{
			Code:     sandboxerr.ErrGeneral.Code,
			Message:  err.Error(),
			ExitCode: sandboxerr.ExitGeneral,
		}
	}

	message := se.Message
	switch {
	case error(se) != err:
		// wrapped with fmt.Errorf; keep the added context
		message = err.Error()
	case se.Cause != nil:
		message = fmt.Sprintf("%s: %v", se.Message, se.Cause)
	}
	return ErrorDetail{
		Code:       se.Code,
		Message:    message,
		Details:    se.Details,
		Suggestion: se.Suggestion,
		ExitCode:   se.ExitCode,
	}
}

// FormatError writes err to w. Nil errors write nothing.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	detail := describe(err)
	if format == FormatJSON {
		return encodeJSON(w, ErrorOutput{Error: detail})
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

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}

// FormatSuccess writes a success message.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return encodeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
