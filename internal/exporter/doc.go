// Package exporter owns the serialized shape of the derivatives table.
//
// It defines the ordered column schema shared by every output surface:
// the three-tier header convention (broad group, sub-group, column name),
// per-column formatting kinds, and accessors that map columns onto
// DerivedRecord fields in both directions. Storage backends and the HTTP
// export endpoint both serialize through this package, so the persisted
// table and the downloadable report can never drift apart.
package exporter
