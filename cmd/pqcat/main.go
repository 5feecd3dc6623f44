// pqcat dumps the schema, column chunk metadata, and rows of a parquet file.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/hollowdb/parquet"
	"github.com/hollowdb/parquet/format"
	"github.com/hollowdb/parquet/internal/debug"
)

func main() {
	schemaOnly := flag.Bool("schema", false, "print the schema and exit")
	noRows := flag.Bool("no-rows", false, "skip the row dump")
	verbose := flag.Bool("v", false, "write debugging output to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: pqcat [options] file.parquet\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	debug.Toggle(*verbose)

	if err := run(flag.Arg(0), *schemaOnly, *noRows); err != nil {
		fmt.Fprintln(os.Stderr, "pqcat:", err)
		os.Exit(1)
	}
}

func run(path string, schemaOnly, noRows bool) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	stat, err := r.Stat()
	if err != nil {
		return err
	}

	f, err := parquet.OpenFile(r, stat.Size())
	if err != nil {
		return err
	}

	fmt.Println(f.Schema())
	if schemaOnly {
		return nil
	}

	fmt.Println()
	if createdBy := f.CreatedBy(); createdBy != "" {
		fmt.Printf("created by: %s\n", createdBy)
	}
	fmt.Printf("rows: %d\n", f.NumRows())

	for i, g := range f.RowGroups() {
		fmt.Printf("\nrow group %d (%d rows)\n", i, g.NumRows())
		printColumnChunks(g.Metadata())
	}

	if noRows {
		return nil
	}

	rows, err := f.ReadRows()
	if err != nil {
		return err
	}
	fmt.Println()
	for _, row := range rows {
		fmt.Println(row)
	}
	return nil
}

func printColumnChunks(g *format.RowGroup) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{
		"column", "type", "encodings", "codec", "values", "nulls", "size", "compressed", "min", "max",
	})

	for _, c := range g.Columns {
		meta := c.MetaData
		if meta == nil {
			continue
		}

		encodings := make([]string, len(meta.Encoding))
		for i, e := range meta.Encoding {
			encodings[i] = e.String()
		}

		nulls, min, max := "", "", ""
		if s := meta.Statistics; s != nil {
			if s.NullCount != nil {
				nulls = strconv.FormatInt(*s.NullCount, 10)
			}
			min = statString(meta.Type, s.MinValue)
			max = statString(meta.Type, s.MaxValue)
		}

		table.Append([]string{
			strings.Join(meta.PathInSchema, "."),
			meta.Type.String(),
			strings.Join(encodings, ","),
			meta.Codec.String(),
			strconv.FormatInt(meta.NumValues, 10),
			nulls,
			strconv.FormatInt(meta.TotalUncompressedSize, 10),
			strconv.FormatInt(meta.TotalCompressedSize, 10),
			min,
			max,
		})
	}

	table.Render()
}

// statString renders the plain encoded bound of a column statistic.
func statString(t format.Type, b []byte) string {
	switch t {
	case format.Boolean:
		if len(b) == 1 {
			return strconv.FormatBool(b[0] != 0)
		}
	case format.Int32:
		if len(b) == 4 {
			return strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b))), 10)
		}
	case format.Int64:
		if len(b) == 8 {
			return strconv.FormatInt(int64(binary.LittleEndian.Uint64(b)), 10)
		}
	case format.Float:
		if len(b) == 4 {
			f := math.Float32frombits(binary.LittleEndian.Uint32(b))
			return strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
	case format.Double:
		if len(b) == 8 {
			f := math.Float64frombits(binary.LittleEndian.Uint64(b))
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case format.ByteArray, format.FixedLenByteArray:
		return string(b)
	}
	return fmt.Sprintf("%X", b)
}
