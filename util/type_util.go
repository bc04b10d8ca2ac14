package util

import (
	"reflect"
)

// NilInterface report whether v is nil or a typed nil pointer/map/slice
func NilInterface(v interface{}) bool {
	if v == nil {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface, reflect.Func:
		return reflect.ValueOf(v).IsNil()
	}
	return false
}
