// Package codegen lowers MIR documents into the framework-neutral ir.Module
// and hands the result to a pluggable Backend chosen by target name.
//
// Lowering resolves every node through a registry.Registry. Unresolved types
// lower to ir.KindMissing placeholders rather than failing; structural
// problems (children under a leaf-only adapter, invalid reference paths,
// duplicate ids) fail the whole request with a *LoweringError naming the
// node, and no output is produced.
package codegen
