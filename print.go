package parquet

import (
	"io"

	"github.com/hollowdb/parquet/format"
)

// Print writes the textual representation of a schema subtree to w, in the
// message format used across the parquet ecosystem. Group shapes are printed
// the way they appear on the wire: lists expand to their container group and
// maps to their key_value pair.
func Print(w io.Writer, name string, field Field) error {
	return PrintIndent(w, name, field, "\t", "\n")
}

func PrintIndent(w io.Writer, name string, field Field, pattern, newline string) error {
	pw := &printWriter{writer: w}
	pw.WriteString("message ")

	if name == "" {
		pw.WriteString("{")
	} else {
		pw.WriteString(name)
		pw.WriteString(" {")
	}

	if fields := field.Fields(); len(fields) > 0 {
		pi := &printIndent{
			pattern: pattern,
			newline: newline,
			repeat:  1,
		}

		pi.writeNewLine(pw)

		for _, child := range fields {
			printWithIndent(pw, child, repetitionOf(child), pi)
			pi.writeNewLine(pw)
		}
	}

	pw.WriteString("}")
	return pw.err
}

func repetitionOf(field Field) string {
	if field.Optional() {
		return "optional"
	}
	return "required"
}

func printWithIndent(w io.StringWriter, field Field, repetition string, indent *printIndent) {
	if list, ok := field.(*ListField); ok && list.oneLevel {
		// Legacy encoding, the repeated element stands for the list.
		printWithIndent(w, list.item, "repeated", indent)
		return
	}

	indent.writeTo(w)
	w.WriteString(repetition)
	w.WriteString(" ")

	switch f := field.(type) {
	case *DataField:
		switch f.Type() {
		case format.Boolean:
			w.WriteString("boolean ")
		case format.Int32:
			w.WriteString("int32 ")
		case format.Int64:
			w.WriteString("int64 ")
		case format.Int96:
			w.WriteString("int96 ")
		case format.Float:
			w.WriteString("float ")
		case format.Double:
			w.WriteString("double ")
		case format.ByteArray:
			w.WriteString("binary ")
		case format.FixedLenByteArray:
			w.WriteString("fixed_len_byte_array ")
		default:
			w.WriteString("<?> ")
		}

		w.WriteString(f.Name())

		if t := f.LogicalType(); t != nil {
			if s := t.String(); s != "" {
				w.WriteString(" (")
				w.WriteString(s)
				w.WriteString(")")
			}
		}

		w.WriteString(";")

	case *ListField:
		w.WriteString("group ")
		w.WriteString(f.Name())
		w.WriteString(" (LIST) {")
		indent.writeNewLine(w)
		indent.push()

		indent.writeTo(w)
		w.WriteString("repeated group ")
		w.WriteString(f.containerName)
		w.WriteString(" {")
		indent.writeNewLine(w)
		indent.push()

		printWithIndent(w, f.item, repetitionOf(f.item), indent)
		indent.writeNewLine(w)

		indent.pop()
		indent.writeTo(w)
		w.WriteString("}")
		indent.writeNewLine(w)

		indent.pop()
		indent.writeTo(w)
		w.WriteString("}")

	case *MapField:
		w.WriteString("group ")
		w.WriteString(f.Name())
		w.WriteString(" (MAP) {")
		indent.writeNewLine(w)
		indent.push()

		indent.writeTo(w)
		w.WriteString("repeated group key_value {")
		indent.writeNewLine(w)
		indent.push()

		printWithIndent(w, f.key, "required", indent)
		indent.writeNewLine(w)
		printWithIndent(w, f.value, repetitionOf(f.value), indent)
		indent.writeNewLine(w)

		indent.pop()
		indent.writeTo(w)
		w.WriteString("}")
		indent.writeNewLine(w)

		indent.pop()
		indent.writeTo(w)
		w.WriteString("}")

	case *StructField:
		w.WriteString("group")

		if f.Name() != "" {
			w.WriteString(" ")
			w.WriteString(f.Name())
		}

		w.WriteString(" {")
		indent.writeNewLine(w)
		indent.push()

		for _, child := range f.fields {
			printWithIndent(w, child, repetitionOf(child), indent)
			indent.writeNewLine(w)
		}

		indent.pop()
		indent.writeTo(w)
		w.WriteString("}")
	}
}

type printIndent struct {
	pattern string
	newline string
	repeat  int
}

func (i *printIndent) push() {
	i.repeat++
}

func (i *printIndent) pop() {
	i.repeat--
}

func (i *printIndent) writeTo(w io.StringWriter) {
	if i.pattern != "" {
		for n := i.repeat; n > 0; n-- {
			w.WriteString(i.pattern)
		}
	}
}

func (i *printIndent) writeNewLine(w io.StringWriter) {
	if i.newline != "" {
		w.WriteString(i.newline)
	}
}

type printWriter struct {
	writer io.Writer
	err    error
}

func (w *printWriter) Write(b []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.writer.Write(b)
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *printWriter) WriteString(s string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := io.WriteString(w.writer, s)
	if err != nil {
		w.err = err
	}
	return n, err
}

var (
	_ io.StringWriter = (*printWriter)(nil)
)
