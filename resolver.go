package tr1pd

import "strings"

// SpecPointer is a single parsed pointer-expression production:
//
//	pointer = ["@"] base ("^")*
//	base    = "HEAD" | "" | 64*hexdigit
type SpecPointer struct {
	At     bool   // "@" prefix: resolve to the start of this block's session
	Base   string // "HEAD", "" (meaning HEAD/Tail), or 64 hex digits
	Carets int    // number of trailing "^": follow prev this many times
}

// SpecRange is a parsed "spec" production: either a single pointer or a
// "start..end" range of two pointer expressions.
type SpecRange struct {
	IsRange bool
	Start   SpecPointer // zero value unless IsRange
	End     SpecPointer
}

// ParseSpec parses the pointer-expression grammar described in the design
// (§4.7): a bare pointer expression, or two joined by "..".
func ParseSpec(s string) (SpecRange, error) {
	if idx := strings.Index(s, ".."); idx >= 0 {
		start, err := parseSpecPointer(s[:idx])
		if err != nil {
			return SpecRange{}, err
		}
		end, err := parseSpecPointer(s[idx+2:])
		if err != nil {
			return SpecRange{}, err
		}
		return SpecRange{IsRange: true, Start: start, End: end}, nil
	}
	end, err := parseSpecPointer(s)
	if err != nil {
		return SpecRange{}, err
	}
	return SpecRange{End: end}, nil
}

func parseSpecPointer(s string) (SpecPointer, error) {
	var sp SpecPointer
	if strings.HasPrefix(s, "@") {
		sp.At = true
		s = s[1:]
	}
	for strings.HasSuffix(s, "^") {
		sp.Carets++
		s = s[:len(s)-1]
	}
	if s != "HEAD" && s != "" {
		if len(s) != KeySize*2 || !isHexString(s) {
			return SpecPointer{}, ErrInvalidSpec
		}
	}
	sp.Base = s
	return sp, nil
}

func isHexString(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Resolver resolves parsed spec expressions against a Store.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolvePointer resolves a single SpecPointer to a concrete BlockPointer.
// emptyIsTail has no observable effect today: an empty base means HEAD in
// both positions (§4.7 reserves the "Tail" name for a future, distinct
// genesis meaning; until that lands it is simply an alias for HEAD).
func (r *Resolver) ResolvePointer(sp SpecPointer, emptyIsTail bool) (BlockPointer, error) {
	_ = emptyIsTail

	var p BlockPointer
	switch sp.Base {
	case "HEAD", "":
		head, err := r.store.GetHead()
		if err != nil {
			return BlockPointer{}, err
		}
		p = head
	default:
		parsed, err := ParseBlockPointer(sp.Base)
		if err != nil {
			return BlockPointer{}, err
		}
		p = parsed
	}

	for i := 0; i < sp.Carets; i++ {
		b, err := r.store.Get(p)
		if err != nil {
			return BlockPointer{}, err
		}
		p = b.Prev()
	}

	if sp.At {
		for {
			b, err := r.store.Get(p)
			if err != nil {
				return BlockPointer{}, err
			}
			if b.Identifier() == KindInit {
				p = b.Pointer()
				break
			}
			if b.Prev().IsEmpty() {
				return BlockPointer{}, ErrNoSuchBlock
			}
			p = b.Prev()
		}
	}

	return p, nil
}

// Resolve parses and resolves a spec string, returning (start, end,
// isRange). For a bare pointer, start is the zero pointer and isRange is
// false; callers should use end alone in that case.
func (r *Resolver) Resolve(spec string) (start, end BlockPointer, isRange bool, err error) {
	parsed, err := ParseSpec(spec)
	if err != nil {
		return BlockPointer{}, BlockPointer{}, false, err
	}
	if !parsed.IsRange {
		end, err = r.ResolvePointer(parsed.End, false)
		return BlockPointer{}, end, false, err
	}
	start, err = r.ResolvePointer(parsed.Start, true)
	if err != nil {
		return BlockPointer{}, BlockPointer{}, true, err
	}
	end, err = r.ResolvePointer(parsed.End, false)
	if err != nil {
		return BlockPointer{}, BlockPointer{}, true, err
	}
	return start, end, true, nil
}

// ExpandRange walks prev from end until it meets start, returning the
// pointers of every block in between in forward (oldest-first) order. It
// fails ErrStartNotAncestorOfEnd if the walk reaches the empty sentinel
// (genesis) without meeting start.
func (r *Resolver) ExpandRange(start, end BlockPointer) ([]BlockPointer, error) {
	var reversed []BlockPointer
	cur := end
	for {
		reversed = append(reversed, cur)
		if cur.Equal(start) {
			break
		}
		b, err := r.store.Get(cur)
		if err != nil {
			return nil, err
		}
		if b.Prev().IsEmpty() {
			return nil, ErrStartNotAncestorOfEnd
		}
		cur = b.Prev()
	}
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed, nil
}

// ResolveAndExpand is the common case: resolve a spec string to a range
// (treating a bare pointer as the single-block range [p, p]) and expand
// it to an ordered list of pointers.
func (r *Resolver) ResolveAndExpand(spec string) ([]BlockPointer, error) {
	start, end, isRange, err := r.Resolve(spec)
	if err != nil {
		return nil, err
	}
	if !isRange {
		start = end
	}
	return r.ExpandRange(start, end)
}
