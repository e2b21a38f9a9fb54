package layout

// Msg is the tagged union exchanged between host and engine. Host to engine:
// Init, UpdateNode, Stop. Engine to host: NodesTick, Done.
type Msg interface {
	isMsg()
}

// Init starts a simulation run, replacing any active one. All previous
// state, including the tick counter and any drag lock, is discarded.
type Init struct {
	Nodes []Node
}

// UpdateNode merges one authoritative node position into the running
// simulation. Dragged carries the id of the node currently held by the
// pointer; nil releases the drag lock so physics resumes for every node.
type UpdateNode struct {
	Update  NodeUpdate
	Dragged *int64
}

// Stop halts the active run. The engine discards its state and answers with
// one Done. Stop on an idle engine is ignored.
type Stop struct{}

// NodesTick is a complete position snapshot, emitted once per completed
// tick. Hosts replace their node set wholesale; a snapshot is never partial.
type NodesTick struct {
	Nodes []Node
}

// Done signals run termination, either because Stop was honored or because
// the tick budget ran out. Exactly one Done is emitted per run.
type Done struct{}

func (Init) isMsg()       {}
func (UpdateNode) isMsg() {}
func (Stop) isMsg()       {}
func (NodesTick) isMsg()  {}
func (Done) isMsg()       {}
