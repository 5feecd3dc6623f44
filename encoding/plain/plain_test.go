package plain

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/hollowdb/parquet/internal/bitstream"
	"github.com/hollowdb/parquet/internal/quick"
)

func TestBooleanRoundTrip(t *testing.T) {
	src := []bool{true, false, true, true, false, false, true, false, true, true}

	enc := AppendBoolean(nil, src)
	if len(enc) != 2 {
		t.Fatalf("encoded %d bytes, want 2", len(enc))
	}

	dst, n, err := DecodeBoolean(nil, enc, len(src))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("consumed %d bytes, want 2", n)
	}
	if !reflect.DeepEqual(dst, src) {
		t.Errorf("round trip of %v returned %v", src, dst)
	}
}

func TestInt32RoundTrip(t *testing.T) {
	src := []int32{0, 1, -1, 1<<31 - 1, -1 << 31}

	dst, n, err := DecodeInt32(nil, AppendInt32(nil, src), len(src))
	if err != nil {
		t.Fatal(err)
	}
	if n != 4*len(src) {
		t.Errorf("consumed %d bytes, want %d", n, 4*len(src))
	}
	if !reflect.DeepEqual(dst, src) {
		t.Errorf("round trip of %v returned %v", src, dst)
	}
}

func TestInt64RoundTrip(t *testing.T) {
	src := []int64{0, 20908539289, -42, 1<<63 - 1}

	dst, _, err := DecodeInt64(nil, AppendInt64(nil, src), len(src))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(dst, src) {
		t.Errorf("round trip of %v returned %v", src, dst)
	}
}

func TestByteArrayRoundTrip(t *testing.T) {
	src := [][]byte{
		[]byte("hello"),
		{},
		[]byte("MOSTRU\xc3\x81RIO-000"),
	}

	dst, n, err := DecodeByteArray(nil, AppendByteArray(nil, src), len(src))
	if err != nil {
		t.Fatal(err)
	}
	if want := 3*ByteArrayLengthSize + 5 + 0 + 15; n != want {
		t.Errorf("consumed %d bytes, want %d", n, want)
	}
	for i := range src {
		if !bytes.Equal(dst[i], src[i]) {
			t.Errorf("value %d: %q != %q", i, dst[i], src[i])
		}
	}
}

func TestByteArrayDoesNotAliasSource(t *testing.T) {
	enc := AppendByteArray(nil, [][]byte{[]byte("abc")})
	dst, _, err := DecodeByteArray(nil, enc, 1)
	if err != nil {
		t.Fatal(err)
	}
	enc[4] = 'x'
	if string(dst[0]) != "abc" {
		t.Errorf("decoded value aliases the source buffer")
	}
}

func TestByteArrayTruncated(t *testing.T) {
	enc := AppendByteArray(nil, [][]byte{[]byte("hello")})
	_, _, err := DecodeByteArray(nil, enc[:6], 1)
	if !errors.Is(err, bitstream.ErrMalformed) {
		t.Errorf("truncated byte array: got %v, want ErrMalformed", err)
	}
}

func TestFixedLenByteArrayRoundTrip(t *testing.T) {
	src := [][]byte{[]byte("0123"), []byte("abcd"), []byte("wxyz")}

	dst, n, err := DecodeFixedLenByteArray(nil, AppendFixedLenByteArray(nil, src), 4, len(src))
	if err != nil {
		t.Fatal(err)
	}
	if n != 12 {
		t.Errorf("consumed %d bytes, want 12", n)
	}
	for i := range src {
		if !bytes.Equal(dst[i], src[i]) {
			t.Errorf("value %d: %q != %q", i, dst[i], src[i])
		}
	}
}

func TestFloatDoubleRoundTrip(t *testing.T) {
	f32 := []float32{0, 1.5, -2.25}
	f64 := []float64{0, 3.14159, -1e300}

	df, _, err := DecodeFloat(nil, AppendFloat(nil, f32), len(f32))
	if err != nil || !reflect.DeepEqual(df, f32) {
		t.Errorf("float round trip: %v %v", df, err)
	}
	dd, _, err := DecodeDouble(nil, AppendDouble(nil, f64), len(f64))
	if err != nil || !reflect.DeepEqual(dd, f64) {
		t.Errorf("double round trip: %v %v", dd, err)
	}
}

func TestInt96RoundTrip(t *testing.T) {
	src := [][12]byte{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		{0xFF, 0, 0xFF, 0, 0xFF, 0, 0xFF, 0, 0xFF, 0, 0xFF, 0},
	}

	dst, _, err := DecodeInt96(nil, AppendInt96(nil, src), len(src))
	if err != nil || !reflect.DeepEqual(dst, src) {
		t.Errorf("int96 round trip: %v %v", dst, err)
	}
}

func TestScalarRandomRoundTrip(t *testing.T) {
	t.Run("boolean", func(t *testing.T) {
		check(t, quick.Check(func(src []bool) bool {
			dst, _, err := DecodeBoolean(nil, AppendBoolean(nil, src), len(src))
			return err == nil && len(dst) == len(src) && reflectEqual(dst, src)
		}))
	})
	t.Run("int32", func(t *testing.T) {
		check(t, quick.Check(func(src []int32) bool {
			dst, n, err := DecodeInt32(nil, AppendInt32(nil, src), len(src))
			return err == nil && n == 4*len(src) && reflectEqual(dst, src)
		}))
	})
	t.Run("int64", func(t *testing.T) {
		check(t, quick.Check(func(src []int64) bool {
			dst, n, err := DecodeInt64(nil, AppendInt64(nil, src), len(src))
			return err == nil && n == 8*len(src) && reflectEqual(dst, src)
		}))
	})
	t.Run("float", func(t *testing.T) {
		check(t, quick.Check(func(src []float32) bool {
			dst, _, err := DecodeFloat(nil, AppendFloat(nil, src), len(src))
			return err == nil && reflectEqual(dst, src)
		}))
	})
	t.Run("double", func(t *testing.T) {
		check(t, quick.Check(func(src []float64) bool {
			dst, _, err := DecodeDouble(nil, AppendDouble(nil, src), len(src))
			return err == nil && reflectEqual(dst, src)
		}))
	})
}

func check(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
	}
}

// reflectEqual treats a nil decode result of an empty input as equal.
func reflectEqual(dst, src interface{}) bool {
	if reflect.ValueOf(src).Len() == 0 {
		return reflect.ValueOf(dst).Len() == 0
	}
	return reflect.DeepEqual(dst, src)
}
