// Package policy loads recording policies written in CUE.
//
// A policy file is a plain CUE struct checked against the embedded
// #Policy definition; omitted fields take the stock defaults:
//
//	capacity: 50
//	native_allow: ["println", "hashCode"]
//	entry_method: "Main.main([Ljava/lang/String;)V"
package policy

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/summa/internal/engine"
	"github.com/roach88/summa/internal/ir"
)

//go:embed schema.cue
var Schema string

// document mirrors #Policy.
type document struct {
	Capacity    int      `json:"capacity"`
	NativeAllow []string `json:"native_allow"`
	Blacklist   []string `json:"blacklist"`
	Patterns    []string `json:"patterns"`
	EntryMethod string   `json:"entry_method,omitempty"`
}

// CompileError is a policy error with its source position when known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and compiles the policy file at path.
func Load(path string) (engine.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes compiles a policy from source. filename is used in error
// positions only.
func LoadBytes(filename string, src []byte) (engine.Policy, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(Schema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return engine.Policy{}, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Policy"))

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return engine.Policy{}, formatCUEError(err)
	}
	if err := checkFields(def, data); err != nil {
		return engine.Policy{}, err
	}

	v := def.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return engine.Policy{}, formatCUEError(err)
	}

	var doc document
	if err := v.Decode(&doc); err != nil {
		return engine.Policy{}, formatCUEError(err)
	}
	return doc.policy(), nil
}

// checkFields rejects top-level fields #Policy does not declare.
func checkFields(def, data cue.Value) error {
	known := make(map[string]bool)
	defs, err := def.Fields(cue.Optional(true))
	if err != nil {
		return formatCUEError(err)
	}
	for defs.Next() {
		known[defs.Selector().Unquoted()] = true
	}

	iter, err := data.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		if !known[name] {
			return &CompileError{
				Field:   name,
				Message: "unknown policy field",
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func (d document) policy() engine.Policy {
	p := engine.Policy{
		Capacity:          d.Capacity,
		NativeAllowList:   d.NativeAllow,
		BlacklistPatterns: d.Patterns,
		EntryMethod:       ir.MethodID(d.EntryMethod),
	}
	for _, m := range d.Blacklist {
		p.Blacklist = append(p.Blacklist, ir.MethodID(m))
	}
	return p
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
