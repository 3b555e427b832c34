package helper

import (
	"runtime"
	"strings"
)

// GetFuncName returns the fully qualified name of the calling function.
func GetFuncName() string {
	pc, _, _, _ := runtime.Caller(1)
	return runtime.FuncForPC(pc).Name()
}

// Lower lowercases usernames and emails so that "FooBar" and "foobar" refer
// to the same account.
func Lower(s string) string {
	return strings.ToLower(s)
}

// ListToMap turns a list into a set.
func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, item := range list {
		result[item] = true
	}
	return result
}
