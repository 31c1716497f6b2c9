package graph

// ClearAllMarks resets every node to [StatusOk] with an empty message.
func (g *Graph) ClearAllMarks() {
	for _, n := range g.nodes {
		n.SetStatus(StatusOk, "")
	}
}

// MarkClean sets the node to [StatusOk]. Missing ids are ignored; the return
// value reports whether the node was found.
func (g *Graph) MarkClean(id ID, message string) bool {
	return g.mark(id, StatusOk, message)
}

// MarkError sets the node to [StatusError]. Missing ids are ignored.
func (g *Graph) MarkError(id ID, message string) bool {
	return g.mark(id, StatusError, message)
}

// MarkWarning sets the node to [StatusWarning]. Missing ids are ignored.
func (g *Graph) MarkWarning(id ID, message string) bool {
	return g.mark(id, StatusWarning, message)
}

func (g *Graph) mark(id ID, s Status, message string) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.SetStatus(s, message)
	return true
}
