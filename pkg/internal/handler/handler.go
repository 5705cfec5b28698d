package handler

import (
	"context"
	"fmt"
	"reflect"
)

// Input is the job input a handler runs against. *queue.Handle implements it.
type Input interface {
	Bind(v any) error
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Handler holds metadata about a job handler function.
type Handler struct {
	Fn         reflect.Value
	ArgsType   reflect.Type
	HasContext bool
	HasResult  bool
}

// NewHandler creates a Handler from a function.
// The function must have one of the signatures
//
//	func(ctx context.Context, args T) error
//	func(ctx context.Context, args T) (R, error)
//
// where either argument may be omitted. When T is the type of the Input the
// worker passes in (a *queue.Handle), the input is passed through unchanged.
func NewHandler(fn any) (*Handler, error) {
	if fn == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function")
	}
	if fnVal.IsNil() {
		return nil, fmt.Errorf("handler function cannot be nil")
	}

	fnType := fnVal.Type()
	handler := &Handler{Fn: fnVal}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return nil, fmt.Errorf("handler must have 1-2 arguments")
	}

	argIdx := 0
	if fnType.In(0).Implements(contextType) {
		handler.HasContext = true
		argIdx = 1
	}
	if numIn == 2 && !handler.HasContext {
		return nil, fmt.Errorf("handler must take context.Context first")
	}
	if argIdx < numIn {
		handler.ArgsType = fnType.In(argIdx)
	}

	switch fnType.NumOut() {
	case 1:
		if !fnType.Out(0).Implements(errorType) {
			return nil, fmt.Errorf("handler must return error")
		}
	case 2:
		if !fnType.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("handler must return (T, error)")
		}
		handler.HasResult = true
	default:
		return nil, fmt.Errorf("handler must return error or (T, error)")
	}

	return handler, nil
}

// Execute runs the handler against in. It returns the handler's result, or
// nil for handlers that only return an error.
func (h *Handler) Execute(ctx context.Context, in Input) (any, error) {
	if !h.Fn.IsValid() || h.Fn.IsNil() {
		return nil, fmt.Errorf("handler function is nil or invalid")
	}

	var args []reflect.Value
	if h.HasContext {
		args = append(args, reflect.ValueOf(ctx))
	}
	if h.ArgsType != nil {
		arg, err := h.bind(in)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	results := h.Fn.Call(args)

	errVal := results[len(results)-1]
	if !errVal.IsNil() {
		return nil, errVal.Interface().(error)
	}
	if h.HasResult {
		return results[0].Interface(), nil
	}
	return nil, nil
}

func (h *Handler) bind(in Input) (reflect.Value, error) {
	if in != nil && reflect.TypeOf(in).AssignableTo(h.ArgsType) {
		return reflect.ValueOf(in), nil
	}
	if in == nil {
		return reflect.Value{}, fmt.Errorf("handler expects input of type %s, got none", h.ArgsType)
	}

	argVal := reflect.New(h.ArgsType)
	if err := in.Bind(argVal.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	return argVal.Elem(), nil
}
