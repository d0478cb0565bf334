package hmr

import (
	"fmt"
	"strings"

	"github.com/modkit-dev/modkit/internal/xerrors"
)

// lexState tracks the accepted-deps scanner position. Nesting is bounded
// to two levels (current plus previous state): a string may appear inside
// the call or inside one array, never deeper.
type lexState int

const (
	stateInCall lexState = iota
	stateInArray
	stateInSingleQuoteString
	stateInDoubleQuoteString
	stateInTemplateString
)

// LexAcceptedDeps scans forward from the first argument position of a
// hot-accept call and collects accepted-dependency URL literals into urls.
// It returns true when the call has no analyzable string or array first
// argument (no-arg, callback, or any unsupported shape), which marks the
// module self-accepting.
//
// Dependency identifiers must be statically known literals: template
// interpolation or a non-literal array entry is a parse error carrying the
// byte offset of the offending character.
func LexAcceptedDeps(src string, start int, urls *[]string) (bool, error) {
	state := stateInCall
	prevState := stateInCall
	var dep strings.Builder

	for i := start; i < len(src); i++ {
		c := src[i]

		switch state {
		case stateInCall, stateInArray:
			switch c {
			case '\'':
				prevState = state
				state = stateInSingleQuoteString
			case '"':
				prevState = state
				state = stateInDoubleQuoteString
			case '`':
				prevState = state
				state = stateInTemplateString
			case ' ', '\t', '\n', '\r', '\f', '\v':
				// skip
			default:
				if state == stateInCall {
					if c == '[' {
						state = stateInArray
					} else {
						// Not a literal-deps call shape: bail out and
						// treat the module as self-accepting.
						return true, nil
					}
				} else {
					switch c {
					case ']':
						return false, nil
					case ',':
						// separator
					default:
						return false, xerrors.New("M002").
							WithOffset(i).
							WithSuggestion("Only string literals may appear in an accept() array")
					}
				}
			}

		case stateInSingleQuoteString, stateInDoubleQuoteString, stateInTemplateString:
			if closesString(state, c) {
				*urls = append(*urls, dep.String())
				dep.Reset()
				if prevState == stateInCall {
					// Single-dep form accept('./dep.js', ...) ends here.
					return false, nil
				}
				state = prevState
				continue
			}
			if state == stateInTemplateString && c == '$' && i+1 < len(src) && src[i+1] == '{' {
				return false, xerrors.New("M001").
					WithOffset(i).
					WithSuggestion("Replace the template string with a plain string literal")
			}
			dep.WriteByte(c)

		default:
			panic(fmt.Sprintf("hmr: unreachable lexer state %d", state))
		}
	}

	// Ran off the end of the source without a terminal token: keep what
	// was collected rather than failing the transform.
	return false, nil
}

func closesString(state lexState, c byte) bool {
	switch state {
	case stateInSingleQuoteString:
		return c == '\''
	case stateInDoubleQuoteString:
		return c == '"'
	case stateInTemplateString:
		return c == '`'
	}
	return false
}
