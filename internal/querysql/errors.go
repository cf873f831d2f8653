package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/sparqlsql/internal/algebra"
)

// Translation error codes.
const (
	// CodeCoercion reports operands without a common value type.
	CodeCoercion = "COERCION"
	// CodeMissingFunction reports a function call with no native rendering.
	CodeMissingFunction = "MISSING_FUNCTION"
	// CodeInvalidTree reports an algebra tree the compiler cannot walk.
	CodeInvalidTree = "INVALID_TREE"
)

// TranslationError is a hard failure: the tree passed the support check
// but could not be rendered. Callers must not fall back on it silently.
type TranslationError struct {
	Code    string
	Message string
	Node    algebra.Node
	Err     error
}

func (e *TranslationError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%s: %s (at %T)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// IsCode reports whether err is a TranslationError with the given code.
func IsCode(err error, code string) bool {
	var te *TranslationError
	return errors.As(err, &te) && te.Code == code
}

// errDecline aborts a compilation that turned out to need the fallback
// evaluator, e.g. a union whose branches bind a variable differently.
var errDecline = errors.New("declined")

func invalidTree(n algebra.Node, format string, args ...any) error {
	return &TranslationError{Code: CodeInvalidTree, Message: fmt.Sprintf(format, args...), Node: n}
}
