// Package classfile provides JVM classfile parsing, encoding and
// structural remapping.
//
// # Parsing
//
//	cf, err := classfile.Parse(data)
//	name, _ := cf.Name()
//
// Names and descriptors stay as constant pool indices; resolve them through
// the Pool accessors (Utf8, ClassName, NameAndType, MemberRef).
//
// # Encoding
//
//	data, err := cf.Encode()
//
// Parse followed by Encode reproduces the input for well-formed classes.
//
// # Remapping
//
// Remap passes every class, field, method, package and string constant
// through a Remapper and returns a new ClassFile:
//
//	out, err := classfile.Remap(ctx, cf, remapper, classfile.Options{})
//
// The constant pool is only appended to, so bytecode operands remain valid
// without rewriting instructions. Options.SkipCode drops method bodies for
// structure-only inspection.
//
// # Annotations
//
// Class annotations can be walked with an ASM-style visitor:
//
//	err := cf.AcceptAnnotations(func(desc string, visible bool) classfile.AnnotationVisitor {
//	    return myVisitor
//	})
package classfile
