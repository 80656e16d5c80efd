package history

// Stack holds the undo and redo commands. Every entry is the command that
// reverts one recorded step.
type Stack struct {
	undo  []Command
	redo  []Command
	limit int
}

// NewStack returns an empty stack keeping at most limit undo entries.
// A limit of zero or less means unlimited.
func NewStack(limit int) *Stack {
	return &Stack{limit: limit}
}

// Push records a new step and clears the redo stack.
func (s *Stack) Push(c Command) {
	s.undo = append(s.undo, c)
	if s.limit > 0 && len(s.undo) > s.limit {
		// Shift in place so trimmed commands are released.
		n := copy(s.undo, s.undo[len(s.undo)-s.limit:])
		clear(s.undo[n:])
		s.undo = s.undo[:n]
	}
	s.redo = nil
}

// Undo reverts the most recent step. It reports false when there is
// nothing to undo. A failed command is dropped from history.
func (s *Stack) Undo(t Target) (bool, error) {
	if len(s.undo) == 0 {
		return false, nil
	}
	c := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	inv, err := c.Apply(t)
	if err != nil {
		return false, err
	}
	s.redo = append(s.redo, inv)
	return true, nil
}

// Redo re-applies the most recently undone step.
func (s *Stack) Redo(t Target) (bool, error) {
	if len(s.redo) == 0 {
		return false, nil
	}
	c := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	inv, err := c.Apply(t)
	if err != nil {
		return false, err
	}
	s.undo = append(s.undo, inv)
	return true, nil
}

func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }
func (s *Stack) UndoLen() int  { return len(s.undo) }
func (s *Stack) RedoLen() int  { return len(s.redo) }

// Peek returns the entry Undo would apply next.
func (s *Stack) Peek() (Command, bool) {
	if len(s.undo) == 0 {
		return Command{}, false
	}
	return s.undo[len(s.undo)-1], true
}

// Clear drops all history.
func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
}
