// Package jarremapper rewrites compiled JVM classes inside a jar from one
// naming scheme to another and moves bundled libraries into a private
// namespace.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	jarremapper/         Root package: Remapper, the library entry point
//	├── classfile/       Classfile parsing, encoding and remapping
//	├── classinfo/       Structural class views and the Provider interface
//	├── mapping/         TSRG mapping tables and flat name tables
//	├── relocate/        Package relocation rules
//	├── mixin/           Mixin target detection from annotations
//	├── remap/           Hierarchy-aware and relocating remappers
//	├── provider/        Renaming class provider with a memoized view
//	├── transform/       Class and resource entry processors
//	├── archive/         Jar reading, the worker pipeline and jar writing
//	├── report/          Run reports with content digests
//	├── config/          YAML run files
//	├── errors/          Structured error types
//	└── cmd/jarremap/    Command line interface
//
// # Quick Start
//
//	c, err := config.Load("run.yaml")
//	if err != nil {
//		return err
//	}
//	r, err := jarremapper.Open(c, logger)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	results, err := r.Run(ctx)
//
// # Naming
//
// Classes are addressed by internal names ("net/example/Foo"). A mapping
// table translates original names to mapped names; class path jars hold
// classes under mapped names and are read back through the reverse table
// so that member lookups see original names.
//
// # Relocation
//
// Relocation rules apply after mapping. Class names are moved by the first
// matching prefix; services files and JSON resources have every dotted
// prefix replaced; string constants are rewritten by the first rule they
// contain.
//
// # Concurrency
//
// Entries are processed by a bounded worker pool. Class info lookups are
// shared across workers and computed once per class; a lookup that
// re-enters itself fails with a cycle error instead of blocking.
package jarremapper
