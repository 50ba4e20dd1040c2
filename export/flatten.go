// Copyright (c) 2019 Nguyễn Quốc Đính
// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Nguyễn Quốc Đính, Jonas Plum
//
// This code was adapted from
// https://github.com/nqd/flat/blob/master/flat.go

package export

import (
	"fmt"
	"reflect"
	"strconv"
)

// flattenMap turns nested maps and slices into a map one level deep with
// dotted keys, so heterogeneous records with nested attributes still fit a
// flat CSV row. Structs such as time.Time stay intact.
func flattenMap(nested map[string]interface{}) map[string]interface{} {
	flat := map[string]interface{}{}
	for key, value := range nested {
		flattenInto(flat, key, value)
	}
	return flat
}

func flattenInto(flat map[string]interface{}, prefix string, nested interface{}) {
	if nested == nil {
		return
	}

	value := reflect.ValueOf(nested)
	switch value.Type().Kind() {
	case reflect.Map:
		for _, key := range value.MapKeys() {
			newKey := fmt.Sprint(key.Interface())
			if prefix != "" {
				newKey = prefix + "." + newKey
			}
			flattenInto(flat, newKey, value.MapIndex(key).Interface())
		}
	case reflect.Slice:
		if value.Type().Elem().Kind() == reflect.Uint8 {
			flat[prefix] = nested // keep []byte as a scalar
			return
		}
		for i := 0; i < value.Len(); i++ {
			newKey := strconv.Itoa(i)
			if prefix != "" {
				newKey = prefix + "." + newKey
			}
			flattenInto(flat, newKey, value.Index(i).Interface())
		}
	default:
		flat[prefix] = nested
	}
}
