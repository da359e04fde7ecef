package cascata

// Merge deep-merges an ordered sequence of raw mappings into one, left to
// right: when both sides hold mappings for a key the merge recurses, otherwise
// the later layer's value replaces the earlier one outright. Later layers win;
// this is a left-fold, not commutative. An empty layer list is an error.
func Merge(layers ...map[string]any) (map[string]any, error) {
	if len(layers) == 0 {
		return nil, &Error{Code: CodeEmptyCascade, Message: "cascade requires at least one layer"}
	}
	out := map[string]any{}
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out, nil
}

// mergeInto recursively overlays src onto dst.
func mergeInto(dst map[string]any, src map[string]any) {
	for k, v := range src {
		sv, srcIsMap := v.(map[string]any)
		if !srcIsMap {
			dst[k] = v
			continue
		}
		dv, dstIsMap := dst[k].(map[string]any)
		if !dstIsMap {
			dv = map[string]any{}
			dst[k] = dv
		}
		mergeInto(dv, sv)
	}
}
