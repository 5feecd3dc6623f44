package parquet

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/hollowdb/parquet/format"
)

// diffStrings renders a unified diff of two texts for test failure output.
func diffStrings(want, got string) string {
	edits := myers.ComputeEdits(span.URIFromPath("schema"), want, got)
	return fmt.Sprint(gotextdiff.ToUnified("want", "got", want, edits))
}

func TestPrintSchema(t *testing.T) {
	tests := []struct {
		scenario string
		fields   []Field
		print    string
	}{
		{
			scenario: "scalars",
			fields: []Field{
				DataFieldOf("on", format.Boolean, false),
				DataFieldOf("count", format.Int64, false),
				DataFieldOf("ratio", format.Double, true),
			},
			print: `message Test {
	required boolean on;
	required int64 count;
	optional double ratio;
}`,
		},

		{
			scenario: "annotated binary",
			fields: []Field{
				DataFieldOf("name", format.ByteArray, false).WithLogicalType(
					&format.LogicalType{UTF8: new(format.StringType)},
				),
			},
			print: `message Test {
	required binary name (STRING);
}`,
		},

		{
			scenario: "fixed length",
			fields: []Field{
				FixedLenDataFieldOf("uuid", 16, false),
			},
			print: `message Test {
	required fixed_len_byte_array uuid;
}`,
		},

		{
			scenario: "list",
			fields: []Field{
				ListFieldOf("numbers", DataFieldOf("number", format.Int32, true)),
			},
			print: `message Test {
	optional group numbers (LIST) {
		repeated group list {
			optional int32 number;
		}
	}
}`,
		},

		{
			scenario: "map",
			fields: []Field{
				MapFieldOf("attrs",
					DataFieldOf("key", format.ByteArray, false),
					DataFieldOf("value", format.Int64, true),
				),
			},
			print: `message Test {
	optional group attrs (MAP) {
		repeated group key_value {
			required binary key;
			optional int64 value;
		}
	}
}`,
		},

		{
			scenario: "nested struct",
			fields: []Field{
				StructFieldOf("user",
					DataFieldOf("id", format.Int64, false),
					DataFieldOf("email", format.ByteArray, true),
				).Nullable(),
			},
			print: `message Test {
	optional group user {
		required int64 id;
		optional binary email;
	}
}`,
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			s, err := NewSchema("Test", test.fields...)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.String(); got != test.print {
				t.Errorf("schema mismatch:\n%s", diffStrings(test.print, got))
			}
		})
	}
}

func TestPrintSchemaNoName(t *testing.T) {
	b := new(strings.Builder)
	f := StructFieldOf("",
		DataFieldOf("id", format.Int32, false),
	)
	if err := Print(b, "", f); err != nil {
		t.Fatal(err)
	}
	want := `message {
	required int32 id;
}`
	if got := b.String(); got != want {
		t.Errorf("schema mismatch:\n%s", diffStrings(want, got))
	}
}
