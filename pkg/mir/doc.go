// Package mir defines the declarative UI document (MIRDocument) edited by the
// designer surface and consumed by the preview renderer and the code
// generator. A document is a single tree of typed nodes carrying props, style,
// text, events, data bindings and resources, plus optional logic metadata
// (state declarations and opaque node graphs).
//
// Normalize is the only way documents enter the rest of the module. It never
// fails: malformed or foreign input collapses to Default(), children that
// cannot be normalized are dropped, and the schema version is stamped on every
// pass so normalization doubles as migration. Normalize is idempotent, which
// keeps persisted documents stable across load/save cycles.
//
// Node ids are expected to be unique across the tree. Normalize does not
// enforce this; Validate reports duplicates so editors can surface them.
package mir
