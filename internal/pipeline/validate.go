package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"tiku/internal"
	"tiku/internal/util"
)

var (
	ErrFileAccess        = errors.New("file read failed")
	ErrSchema            = errors.New("required column missing")
	ErrAnswerResolution  = errors.New("empty answer after cleaning")
	ErrContentValidation = errors.New("content too short or empty")
)

const DefaultMinContentLength = 3

var booleanOptions = [6]string{"正确", "错误", "", "", "", ""}

// ValidateRow checks the answer first, then content length (strictly greater than
// minLen runes, and never less than DefaultMinContentLength).
func ValidateRow(content, answer string, minLen int) error {
	minLen = max(minLen, DefaultMinContentLength)
	if answer == "" {
		return ErrAnswerResolution
	}
	if strings.TrimSpace(content) == "" || util.TrimmedLen(content) <= minLen {
		return ErrContentValidation
	}
	return nil
}

func BuildOptions(row internal.SourceRow, questionType string) [6]string {
	if questionType == internal.BooleanType {
		return booleanOptions
	}
	var out [6]string
	for i, slot := range internal.OptionSlots {
		out[i] = strings.TrimSpace(row.Get(slot))
	}
	return out
}

func kindOf(err error) internal.ErrorKind {
	switch {
	case errors.Is(err, ErrFileAccess):
		return internal.KindFileAccess
	case errors.Is(err, ErrSchema):
		return internal.KindSchema
	case errors.Is(err, ErrAnswerResolution):
		return internal.KindAnswerResolution
	default:
		return internal.KindContentValidation
	}
}

func fileAccessError(err error) error {
	return fmt.Errorf("%w: %v", ErrFileAccess, err)
}
