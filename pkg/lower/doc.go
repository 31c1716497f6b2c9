// Package lower converts a node graph into the descriptor document consumed by
// the compute engine.
//
// # Traversal
//
// [Lower] walks the graph backward from every Rendering node, in ascending id
// order. For each node it first lowers the node feeding each linked input, in
// attribute order, and then emits the node itself. The resulting sequence lists
// every node after all of its dependencies and each node exactly once, so a
// shared ancestor (a diamond) appears a single time ahead of all consumers.
//
// Rendering nodes are roots only and are never emitted. Nodes not reachable
// from a root are ignored.
//
// # Unconnected inputs
//
// An input without a link is not an error. It is emitted as a null dependency
// and logged as a warning. A Rendering node with nothing linked contributes no
// descriptors. Every node with at least one unlinked input is listed in
// [Document.Unconnected].
//
// # Cycles
//
// A link cycle is detected with an in-progress set and reported as
// [ErrCycle] carrying a [*CycleError] that names the node closing the loop.
//
// # Document format
//
//	{
//	  "global_names": ["a"],
//	  "global_init_values": [0.5],
//	  "descriptors": [
//	    {"id": 1, "data": {"Interval": {"name": "t", "begin": "0.0", "end": "1.0", "quality": 4}}},
//	    {"id": 7, "data": {"Curve": {"interval": 1, "fx": "cos(t)", "fy": "sin(t)", "fz": "0"}}}
//	  ]
//	}
//
// Fields follow attribute order. Inputs hold the id of the node they depend on
// or null; static fields hold their literal (a string, a 4-element string
// array, or an integer). Outputs are omitted.
package lower
