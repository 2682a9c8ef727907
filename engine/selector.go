package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Selector is a parsed path expression: one step per whitespace-separated
// word. The empty selector addresses the root.
type Selector []string

// ParseSelector splits expr on runs of whitespace.
func ParseSelector(expr string) Selector {
	return strings.Fields(expr)
}

// SelectorError reports a failed step. Step is 1-based.
type SelectorError struct {
	Step  int
	Cause string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector step %d: %s", e.Step, e.Cause)
}

func stepError(step int, format string, args ...any) error {
	return &SelectorError{Step: step + 1, Cause: fmt.Sprintf(format, args...)}
}

// listIndex resolves a step against a list of length n. It returns the
// index and whether the step hit; a syntactically valid step that points
// outside the list is a miss (ok=false, err=nil). A step that is not
// "first", "last" or a decimal integer is a hard failure.
func listIndex(step string, n int) (int, bool, error) {
	switch step {
	case "first":
		if n == 0 {
			return 0, false, nil
		}
		return 0, true, nil
	case "last":
		if n == 0 {
			return 0, false, nil
		}
		return n - 1, true, nil
	}
	if !decimalStep(step) {
		return 0, false, fmt.Errorf("invalid list index %q", step)
	}
	i, err := strconv.Atoi(step)
	if err != nil {
		return 0, false, fmt.Errorf("invalid list index %q", step)
	}
	if i < 0 || i >= n {
		return 0, false, nil
	}
	return i, true, nil
}

// decimalStep matches [+-]?[0-9]+.
func decimalStep(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// resolve applies a single step to v. A miss returns (nil, false, nil).
func resolve(v Value, step string) (Value, bool, error) {
	switch v := v.(type) {
	case Dict:
		child, ok := v[step]
		return child, ok, nil
	case List:
		i, ok, err := listIndex(step, len(v))
		if err != nil || !ok {
			return nil, false, err
		}
		return v[i], true, nil
	default:
		return nil, false, nil
	}
}

// Select resolves sel against root. A miss at any step is a failure.
func Select(root Value, sel Selector) (Value, error) {
	v := root
	for k, step := range sel {
		child, ok, err := resolve(v, step)
		if err != nil {
			return nil, stepError(k, "%s", err)
		}
		if !ok {
			return nil, stepError(k, "no value at %q", step)
		}
		v = child
	}
	return v, nil
}

// Set attaches nv at sel within root and returns the (possibly rebuilt)
// root. The selector must be non-empty; replacing the root is the
// caller's business. On a dictionary the final step creates or replaces
// the key. On a list, "first" assigns index 0 (appending to an empty
// list), "last" assigns the final index (appending to an empty list), and
// a decimal index must already be in range.
func Set(root Value, sel Selector, nv Value) (Value, error) {
	if len(sel) == 0 {
		return nil, stepError(-1, "cannot set the root")
	}
	return setAt(root, sel, 0, nv)
}

func setAt(v Value, sel Selector, k int, nv Value) (Value, error) {
	step := sel[k]
	if k == len(sel)-1 {
		return attach(v, step, k, nv)
	}

	switch v := v.(type) {
	case Dict:
		child, ok := v[step]
		if !ok {
			return nil, stepError(k, "no value at %q", step)
		}
		updated, err := setAt(child, sel, k+1, nv)
		if err != nil {
			return nil, err
		}
		v[step] = updated
		return v, nil
	case List:
		i, ok, err := listIndex(step, len(v))
		if err != nil {
			return nil, stepError(k, "%s", err)
		}
		if !ok {
			return nil, stepError(k, "no value at %q", step)
		}
		updated, err := setAt(v[i], sel, k+1, nv)
		if err != nil {
			return nil, err
		}
		v[i] = updated
		return v, nil
	default:
		return nil, stepError(k, "cannot descend into a scalar")
	}
}

func attach(v Value, step string, k int, nv Value) (Value, error) {
	switch v := v.(type) {
	case Dict:
		v[step] = nv
		return v, nil
	case List:
		switch step {
		case "first":
			if len(v) == 0 {
				return append(v, nv), nil
			}
			v[0] = nv
			return v, nil
		case "last":
			if len(v) == 0 {
				return append(v, nv), nil
			}
			v[len(v)-1] = nv
			return v, nil
		}
		if !decimalStep(step) {
			return nil, stepError(k, "invalid list index %q", step)
		}
		i, err := strconv.Atoi(step)
		if err != nil || i < 0 || i >= len(v) {
			return nil, stepError(k, "list index %q out of range", step)
		}
		v[i] = nv
		return v, nil
	default:
		return nil, stepError(k, "cannot set a member of a scalar")
	}
}

// Delete removes the value at sel from its container and returns the
// (possibly rebuilt) root. The selector must be non-empty; a miss at the
// final step is a failure.
func Delete(root Value, sel Selector) (Value, error) {
	if len(sel) == 0 {
		return nil, stepError(-1, "cannot delete the root")
	}
	return deleteAt(root, sel, 0)
}

func deleteAt(v Value, sel Selector, k int) (Value, error) {
	step := sel[k]
	if k == len(sel)-1 {
		switch v := v.(type) {
		case Dict:
			if _, ok := v[step]; !ok {
				return nil, stepError(k, "no value at %q", step)
			}
			delete(v, step)
			return v, nil
		case List:
			i, ok, err := listIndex(step, len(v))
			if err != nil {
				return nil, stepError(k, "%s", err)
			}
			if !ok {
				return nil, stepError(k, "no value at %q", step)
			}
			return append(v[:i], v[i+1:]...), nil
		default:
			return nil, stepError(k, "cannot delete a member of a scalar")
		}
	}

	switch v := v.(type) {
	case Dict:
		child, ok := v[step]
		if !ok {
			return nil, stepError(k, "no value at %q", step)
		}
		updated, err := deleteAt(child, sel, k+1)
		if err != nil {
			return nil, err
		}
		v[step] = updated
		return v, nil
	case List:
		i, ok, err := listIndex(step, len(v))
		if err != nil {
			return nil, stepError(k, "%s", err)
		}
		if !ok {
			return nil, stepError(k, "no value at %q", step)
		}
		updated, err := deleteAt(v[i], sel, k+1)
		if err != nil {
			return nil, err
		}
		v[i] = updated
		return v, nil
	default:
		return nil, stepError(k, "cannot descend into a scalar")
	}
}
