package stdlib

import (
	"time"

	"github.com/chazu/razen/vm"
)

// Time returns the Time library. Clock readings are milliseconds since the
// Unix epoch.
func Time() *vm.Library {
	return TimeWithClock(time.Now)
}

// TimeWithClock returns the Time library reading the time from now.
func TimeWithClock(now func() time.Time) *vm.Library {
	return vm.NewLibrary("Time").
		Define("now", func([]vm.Value) (vm.Value, error) {
			return vm.Number(float64(now().UnixMilli())), nil
		}).
		Define("seconds", func([]vm.Value) (vm.Value, error) {
			return vm.Number(float64(now().Unix())), nil
		}).
		Define("format", func(args []vm.Value) (vm.Value, error) {
			t := now()
			if len(args) > 0 {
				ms, err := number("format", args[0])
				if err != nil {
					return vm.Null(), err
				}
				t = time.UnixMilli(int64(ms))
			}
			return vm.String(t.UTC().Format(time.RFC3339)), nil
		})
}
