// Package engine exchanges lowered documents with the external compute engine.
//
// The engine evaluates a document and answers with validation records for
// the nodes it found problems with. The exchange is one-shot and
// message-passing: the engine only ever receives the encoded document and a
// snapshot of the globals, never a reference into the live graph.
//
// [Exchange] tracks the latest request. A request cannot be cancelled once
// sent; submitting a new one makes the results of every earlier request
// stale, and [Exchange.Deliver] refuses them. Accepted results replace all
// previous marks on the graph (see package feedback).
//
// Nothing here retries. A failed evaluation is reported to the caller, which
// decides whether to submit again.
package engine
