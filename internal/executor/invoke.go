package executor

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/me/taskdag/internal/contracts"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// invoke dispatches spec.Func: synthesised copy tasks implement
// contracts.Runner directly, and plain user task functions are called
// reflectively, positionally matched against spec.Args, with an optional
// leading context.Context parameter.
func invoke(ctx context.Context, e *Executor, spec contracts.TaskSpec) (any, error) {
	if r, ok := spec.Func.(contracts.Runner); ok {
		return r.Run(ctx)
	}
	return invokeUserFunc(ctx, spec.Func, resolveArgs(e, spec.Args))
}

// resolveArgs replaces every HandleID-tagged arg's Value with the
// referenced task's materialised result (spec §3: "Task handles... may
// appear as arguments to later tasks"). This is safe to do here and only
// here: by the time a task's goroutine reaches invoke, its SyncDeps wait
// has already confirmed every producing task finished.
func resolveArgs(e *Executor, specArgs []contracts.Arg) []contracts.Arg {
	out := make([]contracts.Arg, len(specArgs))
	for i, a := range specArgs {
		if a.HandleID != "" {
			if res, ok := e.Result(a.HandleID); ok {
				a.Value = res
			}
		}
		out[i] = a
	}
	return out
}

func invokeUserFunc(ctx context.Context, fn any, specArgs []contracts.Arg) (any, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("taskdag: task function is not callable: %T", fn)
	}
	ft := fv.Type()

	args := append([]contracts.Arg(nil), specArgs...)
	sort.Slice(args, func(i, j int) bool { return args[i].Position < args[j].Position })

	in := make([]reflect.Value, 0, ft.NumIn())
	argIdx := 0
	for i := 0; i < ft.NumIn(); i++ {
		pt := ft.In(i)
		if i == 0 && pt == ctxType {
			in = append(in, reflect.ValueOf(ctx))
			continue
		}
		if argIdx >= len(args) {
			return nil, fmt.Errorf("taskdag: task function %s expects more arguments than were recorded", ft)
		}
		rv, err := coerceArg(args[argIdx].Value, pt)
		if err != nil {
			return nil, fmt.Errorf("taskdag: argument %d: %w", argIdx, err)
		}
		argIdx++
		in = append(in, rv)
	}

	out := fv.Call(in)
	var result any
	var err error
	resultSet := false
	for _, o := range out {
		if o.Type().Implements(errType) || o.Type() == errType {
			if !o.IsNil() {
				err = o.Interface().(error)
			}
			continue
		}
		if !resultSet {
			result = o.Interface()
			resultSet = true
		}
	}
	return result, err
}

func coerceArg(av any, pt reflect.Type) (reflect.Value, error) {
	if av == nil {
		return reflect.Zero(pt), nil
	}
	rv := reflect.ValueOf(av)
	if rv.Type().AssignableTo(pt) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(pt) {
		return rv.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("type %s not assignable to parameter type %s", rv.Type(), pt)
}
