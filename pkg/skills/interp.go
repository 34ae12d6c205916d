package skills

import (
	"context"
	"reflect"

	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// interpretUnit evaluates the unit's source with yaegi and adapts its
// Execute symbol to the Skill interface. Only the standard library is
// importable from interpreted skills.
func interpretUnit(unit *Unit) (skilltypes.Skill, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrap(err, "failed to load interpreter symbols")
	}
	if _, err := i.EvalPath(unit.File); err != nil {
		return nil, errors.Wrapf(err, "failed to interpret %s", unit.File)
	}

	symbol := entryPoint
	if unit.Package != "" && unit.Package != "main" {
		symbol = unit.Package + "." + entryPoint
	}
	fn, err := i.Eval(symbol)
	if err != nil {
		return nil, errors.Wrapf(err, "%s must define %s", unit.File, entryPoint)
	}
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, errors.Errorf("%s is not a function", symbol)
	}

	return skilltypes.Func(func(ctx context.Context, input skilltypes.Payload) (skilltypes.Payload, error) {
		return callInterpreted(ctx, fn, unit.TakesContext, input)
	}), nil
}

func callInterpreted(ctx context.Context, fn reflect.Value, takesCtx bool, input skilltypes.Payload) (skilltypes.Payload, error) {
	args := make([]reflect.Value, 0, 2)
	if takesCtx {
		args = append(args, reflect.ValueOf(ctx))
	}
	args = append(args, reflect.ValueOf(map[string]any(input.Clone())))

	results := fn.Call(args)
	if len(results) == 0 || len(results) > 2 {
		return nil, errors.Errorf("%s returned %d values", entryPoint, len(results))
	}

	if len(results) == 2 && !results[1].IsNil() {
		if err, ok := results[1].Interface().(error); ok {
			return nil, err
		}
		return nil, errors.Errorf("%s returned a non-error second value", entryPoint)
	}

	raw := results[0]
	if raw.Kind() == reflect.Interface {
		raw = raw.Elem()
	}
	if !raw.IsValid() || (raw.Kind() == reflect.Map && raw.IsNil()) {
		return skilltypes.Payload{}, nil
	}

	switch out := raw.Interface().(type) {
	case map[string]any:
		return skilltypes.Payload(out), nil
	case skilltypes.Payload:
		return out, nil
	default:
		return nil, errors.Errorf("%s returned %T, expected map[string]any", entryPoint, out)
	}
}
