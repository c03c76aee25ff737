package summary

import "github.com/roach88/summa/internal/ir"

// Document renders the footprint as the report "context" object.
// The callee key is omitted for static calls.
func (f *Footprint) Document() map[string]any {
	fields := make([]any, len(f.instanceReads))
	for i, r := range f.instanceReads {
		fields[i] = map[string]any{
			"sourceObject": int(r.Owner),
			"fieldName":    r.Field,
			"value":        r.Value,
		}
	}
	statics := make([]any, len(f.staticReads))
	for i, r := range f.staticReads {
		statics[i] = map[string]any{
			"classInfo": string(r.Type),
			"fieldName": r.Field,
			"value":     r.Value,
		}
	}
	doc := map[string]any{
		"contextSize":  f.Size(),
		"isolated":     f.isolated,
		"args":         valueList(f.args),
		"fields":       fields,
		"staticFields": statics,
	}
	if f.callee != ir.NullRef {
		doc["this"] = int(f.callee)
	}
	return doc
}

// Document renders the ledger as the report "modifications" object.
// The returnValue key is omitted for void calls.
func (l *Ledger) Document() map[string]any {
	fields := make([]any, len(l.instanceWrites))
	for i, w := range l.instanceWrites {
		fields[i] = map[string]any{
			"targetObject": int(w.Owner),
			"fieldName":    w.Field,
			"type":         w.Kind.String(),
			"value":        w.Value,
		}
	}
	statics := make([]any, len(l.staticWrites))
	for i, w := range l.staticWrites {
		statics[i] = map[string]any{
			"classInfo": string(w.Type),
			"fieldName": w.Field,
			"type":      w.Kind.String(),
			"value":     w.Value,
		}
	}
	doc := map[string]any{
		"modsSize":     l.Size(),
		"args":         valueList(l.args),
		"fields":       fields,
		"staticFields": statics,
	}
	if l.ret != nil {
		doc["returnValue"] = l.ret
	}
	return doc
}

func valueList(vs []ir.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
