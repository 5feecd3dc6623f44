// Package quick drives randomized round trip tests over slices far larger
// than the 50 element maximum hardcoded in testing/quick.
package quick

import (
	"fmt"
	"math/rand"
	"reflect"
)

// The sizes straddle the boundaries the encoders care about: bit packing
// groups of 8, byte boundaries, and page sized runs.
var sizes = [...]int{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9,
	15, 16, 17,
	31, 32, 33,
	63, 64, 65,
	127, 128, 129,
	255, 256, 257,
	1000, 1023, 1024, 1025,
	4000, 4095, 4096, 4097,
}

// Check calls f, a func([]T) bool, with pseudo random slices of every size in
// the size table and returns an error describing the first input f rejects.
// The random source is seeded deterministically so failures reproduce.
func Check(f interface{}) error {
	v := reflect.ValueOf(f)
	r := rand.New(rand.NewSource(0))

	makeSlice := slicesOf(v.Type().In(0), r)
	if makeSlice == nil {
		panic("cannot generate random inputs of type " + v.Type().In(0).String())
	}

	for _, n := range sizes {
		for i := 0; i < 3; i++ {
			in := makeSlice(n)
			if !v.Call([]reflect.Value{reflect.ValueOf(in)})[0].Bool() {
				return fmt.Errorf("attempt %d: rejected input of size %d: %v", i+1, n, in)
			}
		}
	}
	return nil
}

func slicesOf(t reflect.Type, r *rand.Rand) func(int) interface{} {
	switch t.Elem().Kind() {
	case reflect.Bool:
		return func(n int) interface{} {
			v := make([]bool, n)
			for i := range v {
				v[i] = r.Int()%2 != 0
			}
			return v
		}
	case reflect.Int32:
		return func(n int) interface{} {
			v := make([]int32, n)
			for i := range v {
				v[i] = r.Int31()
			}
			return v
		}
	case reflect.Int64:
		return func(n int) interface{} {
			v := make([]int64, n)
			for i := range v {
				v[i] = r.Int63()
			}
			return v
		}
	case reflect.Float32:
		return func(n int) interface{} {
			v := make([]float32, n)
			for i := range v {
				v[i] = r.Float32()
			}
			return v
		}
	case reflect.Float64:
		return func(n int) interface{} {
			v := make([]float64, n)
			for i := range v {
				v[i] = r.Float64()
			}
			return v
		}
	case reflect.Uint8:
		return func(n int) interface{} {
			v := make([]byte, n)
			r.Read(v)
			return v
		}
	}
	return nil
}
