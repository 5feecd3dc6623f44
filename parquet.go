/*
Package parquet reads and writes parquet files.

The package models a file the way the format does: a Schema describes a tree
of fields whose leaves are typed columns, rows are generic Values, and the
columnar representation of a row set is recovered through record shredding
and assembly of repetition and definition levels.

# Reading

OpenFile decodes the footer of a file exposed through an io.ReaderAt and
gives access to its row groups. Columns can be read one chunk at a time with
RowGroup.ReadColumn, or assembled back into rows with File.ReadRows.

# Writing

WriteFile shreds rows into column chunks and writes them as a single row
group, with dictionary encoding and the configured compression codec applied
per page.

# Tooling

The pqcat program at ./cmd/pqcat dumps the schema, column chunk metadata,
and rows of a file.
*/
package parquet
