// Package cascata materializes typed configuration structs from loosely-typed
// mappings produced by TOML/YAML/JSON readers (or handed in directly).
//
// It provides:
//
//   - Declared-type-driven conversion (paths, date/times, user converters)
//   - Recursive sub-config resolution: inline mappings and file pointers,
//     with cycle detection across the pointer chain
//   - Cascade merging of layered sources (later layers win)
//   - A stable error model via *Error (code, field, provenance trail)
//   - Depth-first post-construction validation through the Validatable hook
//
// Design policy:
//
//   - Keep the public API in the root package; format readers live under
//     source/<format> and stay free of any dependency on the root package.
//   - Entry points are generic (FromMap, FromFiles, FromTOML, ...): the target
//     type parameter drives introspection.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	type Server struct {
//		cascata.Base
//		Host string       `cascata:"host,required"`
//		Port int          `cascata:"port" default:"8080"`
//		Logs cascata.Path `cascata:"logs"`
//	}
//
//	cfg, err := cascata.FromTOML[Server](ctx, []string{"base.toml", "site.toml"})
package cascata
