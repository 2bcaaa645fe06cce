package runengine

import (
	"fmt"

	"github.com/easternanemone/daqcore/internal/capability"
)

// toParamValue converts the JSON-ish `any` a Set command carries into a
// capability.ParamValue, per §4.2 ("Set: accepts JSON-valued input").
// encoding/json unmarshals numbers into float64 by default, so a
// JSON-decoded 4 arrives as float64 and becomes ParamFloat here rather
// than guessing intent from whether the float has a fractional part. A Go
// int or int64 value (e.g. a Set("gain", 4) literal) becomes ParamInt.
func toParamValue(v any) (capability.ParamValue, error) {
	switch t := v.(type) {
	case capability.ParamValue:
		return t, nil
	case float64:
		return capability.FloatParam(t), nil
	case float32:
		return capability.FloatParam(float64(t)), nil
	case int:
		return capability.IntParam(int64(t)), nil
	case int64:
		return capability.IntParam(t), nil
	case bool:
		return capability.BoolParam(t), nil
	case string:
		return capability.StringParam(t), nil
	default:
		return capability.ParamValue{}, fmt.Errorf("runengine: unsupported Set value type %T", v)
	}
}
