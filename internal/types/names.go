package types

// FreeTypeVars collects the distinct TypeVar ids referenced anywhere in t,
// in first-seen order. Used by internal/check to decide which inference
// variables a function's inferred signature still leaves open.
func FreeTypeVars(t Ty) []uint32 {
	var out []uint32
	seen := map[uint32]bool{}
	var walk func(Ty)
	walk = func(t Ty) {
		if t == nil {
			return
		}
		switch v := t.(type) {
		case TypeVar:
			if !seen[v.Id] {
				seen[v.Id] = true
				out = append(out, v.Id)
			}
		case Named:
			for _, a := range v.Args {
				walk(a)
			}
		case Meta:
			walk(v.Of)
		case Function:
			if v.Func.Receiver != nil {
				walk(v.Func.Receiver)
			}
			for _, a := range v.Func.Args {
				walk(a)
			}
			walk(v.Func.Ret)
		case Tuple:
			for _, e := range v.Elems {
				walk(e)
			}
		case Sum:
			for _, e := range v.Tys {
				walk(e)
			}
		}
	}
	walk(t)
	return out
}

// IsConcrete reports whether t contains no TypeVar and no unresolved
// Generic, i.e. it is safe to lower to a bytecode type tag.
func IsConcrete(t Ty) bool {
	switch v := t.(type) {
	case TypeVar, Generic:
		return false
	case Named:
		for _, a := range v.Args {
			if !IsConcrete(a) {
				return false
			}
		}
		return true
	case Meta:
		return IsConcrete(v.Of)
	case Function:
		if v.Func.Receiver != nil && !IsConcrete(v.Func.Receiver) {
			return false
		}
		for _, a := range v.Func.Args {
			if !IsConcrete(a) {
				return false
			}
		}
		return v.Func.Ret == nil || IsConcrete(v.Func.Ret)
	case Tuple:
		for _, e := range v.Elems {
			if !IsConcrete(e) {
				return false
			}
		}
		return true
	case Sum:
		for _, e := range v.Tys {
			if !IsConcrete(e) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
