// Package graph provides the node-graph model edited by nodeplot: typed nodes,
// their pins and fields (attributes), and the link table connecting them.
//
// # Overview
//
// A [Graph] owns three things:
//
//   - a node map (node id → [Node])
//   - an attribute arena (attribute id → [Attribute]), the sole owner of every attribute
//   - a link table (input attribute id → output attribute id)
//
// Nodes store only the ordered list of attribute ids they own. That order is
// significant: it is the order fields are displayed in and the order they are
// serialized in by package lower.
//
// # Identity
//
// Node ids and attribute ids are drawn from one monotonic counter ([Graph.NextID]),
// so a node id never collides with an attribute id and no id is handed out twice
// in a session. Prefab constructors take the allocator as an [IDAllocator]:
//
//	g := graph.New()
//	curve := graph.PrefabCurve(g.NextID)
//	_ = g.AddNode(curve, graph.Position{X: 120, Y: 40})
//
// # Links
//
// A link is keyed by the input attribute, so an input accepts at most one
// incoming connection while an output may fan out to many inputs.
// [Graph.TryCreateLink] accepts its two endpoints in either order and only
// links an Input to an Output of the same [PinKind]; creating a second link on
// an input replaces the first. Incompatible pairs are rejected by returning
// false, never by an error.
//
// # Status
//
// Each node carries a validation [Status] set by the external compute engine
// through [Graph.MarkError], [Graph.MarkWarning] and [Graph.MarkClean]. Marks on
// ids that no longer exist are ignored, since engine results can arrive after
// the node was removed.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. The host loop (TUI frame, HTTP
// session lock) serializes all access.
package graph
