package schema

import "fmt"

// GrammarError reports input that does not match the declaration grammar.
type GrammarError struct {
	Pos Position
	Msg string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Errorf returns a *GrammarError at pos.
func Errorf(pos Position, format string, args ...any) *GrammarError {
	return &GrammarError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
