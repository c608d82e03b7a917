package resource

import "reflect"

// Request names one resource type in a batched access, together with the
// access mode asked for it.
type Request struct {
	Type  reflect.Type
	Write bool
}

// Read builds a shared-access request for T.
func Read[T any]() Request {
	return Request{Type: reflect.TypeFor[T]()}
}

// Write builds a mutable-access request for T.
func Write[T any]() Request {
	return Request{Type: reflect.TypeFor[T](), Write: true}
}

// GetMulti resolves several resource requests in one call. A batch naming
// the same type twice is rejected with an AliasingConflictError when either
// request asks for mutable access; duplicate shared reads are permitted.
// The returned slice holds the stored pointers in request order.
func (r *Registry) GetMulti(reqs ...Request) ([]any, error) {
	seen := make(map[reflect.Type]bool, len(reqs))
	for _, req := range reqs {
		if wrote, dup := seen[req.Type]; dup && (wrote || req.Write) {
			return nil, &AliasingConflictError{Type: req.Type}
		}
		seen[req.Type] = seen[req.Type] || req.Write
	}
	out := make([]any, len(reqs))
	for i, req := range reqs {
		v, ok := r.get(req.Type)
		if !ok {
			return nil, &NotFoundError{Type: req.Type}
		}
		out[i] = v
	}
	return out, nil
}

// GetMulti2 fetches two resources for shared access. Requesting the same
// type twice is allowed for reads.
func GetMulti2[A, B any](r *Registry) (*A, *B, error) {
	vals, err := r.GetMulti(Read[A](), Read[B]())
	if err != nil {
		return nil, nil, err
	}
	return vals[0].(*A), vals[1].(*B), nil
}

// GetMulti2Mut fetches two resources for mutable access. Requesting the
// same type for both always fails with an AliasingConflictError: two
// mutable references to one value must never coexist.
func GetMulti2Mut[A, B any](r *Registry) (*A, *B, error) {
	vals, err := r.GetMulti(Write[A](), Write[B]())
	if err != nil {
		return nil, nil, err
	}
	return vals[0].(*A), vals[1].(*B), nil
}
