package app

// Progress is the tracker's derived view: how many of the intent's
// tokens are involved and how many have cleared authorization.
type Progress struct {
	Involved  int
	Completed int
}

// Done reports whether every involved token has cleared.
func (p Progress) Done() bool {
	return p.Involved > 0 && p.Completed == p.Involved
}

// Tracker is a pure derived view over the machine's ledger, used only
// for progress display. It has no effect on transitions.
type Tracker struct {
	machine *Machine
}

// NewTracker creates a tracker over the given machine.
func NewTracker(machine *Machine) *Tracker {
	return &Tracker{machine: machine}
}

// Progress derives the current counts from the ledger.
func (t *Tracker) Progress() Progress {
	completed, involved := t.machine.Progress()
	return Progress{Involved: involved, Completed: completed}
}
