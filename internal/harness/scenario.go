package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/summa/internal/engine"
	"github.com/roach88/summa/internal/ir"
	"github.com/roach88/summa/internal/summary"
)

// Scenario is a scripted host execution: the methods it calls, the heap
// it starts from, and one or more runs of steps with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Methods maps the aliases used by steps to method descriptions.
	Methods map[string]ir.MethodInfo `yaml:"methods"`

	// Heap is the initial heap, rebuilt for every run.
	Heap HeapSpec `yaml:"heap"`

	// Policy overrides fields of the base policy.
	Policy *PolicyOverrides `yaml:"policy,omitempty"`

	// Runs are executed in order; each is a fresh engine run.
	Runs []RunSpec `yaml:"runs"`
}

// HeapSpec describes the objects and static areas of the heap.
type HeapSpec struct {
	Objects []ObjectSpec `yaml:"objects"`
	Statics []StaticSpec `yaml:"statics"`
}

// ObjectSpec is one heap object. Field values use the kind:literal form.
type ObjectSpec struct {
	Ref    int32             `yaml:"ref"`
	Class  string            `yaml:"class"`
	Fields map[string]string `yaml:"fields"`
	Arrays []string          `yaml:"arrays"`
	Text   *string           `yaml:"text"`
	Shared bool              `yaml:"shared"`
	Frozen bool              `yaml:"frozen"`
}

// StaticSpec is the static area of one type.
type StaticSpec struct {
	Type   string            `yaml:"type"`
	Fields map[string]string `yaml:"fields"`
	Arrays []string          `yaml:"arrays"`
	Frozen bool              `yaml:"frozen"`
}

// PolicyOverrides replaces the base policy's fields that are set.
type PolicyOverrides struct {
	Capacity    int      `yaml:"capacity"`
	NativeAllow []string `yaml:"native_allow"`
	Blacklist   []string `yaml:"blacklist"`
	Patterns    []string `yaml:"patterns"`
	EntryMethod string   `yaml:"entry_method"`
}

// RunSpec is one engine run.
type RunSpec struct {
	Name   string     `yaml:"name"`
	Steps  []Step     `yaml:"steps"`
	Expect *RunExpect `yaml:"expect,omitempty"`
}

// Step is exactly one host action.
type Step struct {
	// Call enters a method, runs its body unless replayed, and returns.
	Call *CallStep `yaml:"call,omitempty"`

	// Read reads a field of the live heap in the current method.
	Read *FieldRef `yaml:"read,omitempty"`

	// Write writes a field in the current method.
	Write *WriteStep `yaml:"write,omitempty"`

	// Set mutates the heap without telling the engine, like another
	// thread or a backtracked state would.
	Set *WriteStep `yaml:"set,omitempty"`

	// Native executes the named native method.
	Native string `yaml:"native,omitempty"`

	// Interrupt delivers an interruption, e.g. "object_locked".
	Interrupt string `yaml:"interrupt,omitempty"`
}

// CallStep is a method invocation.
type CallStep struct {
	// Method is an alias from Scenario.Methods.
	Method string `yaml:"method"`

	// This is the receiver handle for instance methods.
	This *int32 `yaml:"this,omitempty"`

	Args []string `yaml:"args"`

	// Runnable is the number of runnable threads at entry. Default: 1.
	Runnable int `yaml:"runnable,omitempty"`

	// Body runs when the call executes; it is skipped on replay.
	Body []Step `yaml:"body,omitempty"`

	// Return is the returned value; empty means void.
	Return string `yaml:"return,omitempty"`

	// ReturnField returns the live value of a field instead of Return.
	ReturnField *FieldRef `yaml:"return_field,omitempty"`

	Expect *CallExpect `yaml:"expect,omitempty"`
}

// FieldRef names an instance field (Object) or a static field (Static).
type FieldRef struct {
	Object *int32 `yaml:"object,omitempty"`
	Static string `yaml:"static,omitempty"`
	Field  string `yaml:"field"`
}

// WriteStep assigns Value to a field. Kind is the declared field kind and
// defaults to the value's kind.
type WriteStep struct {
	FieldRef `yaml:",inline"`
	Value    string `yaml:"value"`
	Kind     string `yaml:"kind,omitempty"`
}

// CallExpect checks one call's outcome.
type CallExpect struct {
	Replayed *bool  `yaml:"replayed,omitempty"`
	Return   string `yaml:"return,omitempty"`
}

// RunExpect checks engine and heap state after a run.
type RunExpect struct {
	// Summaries maps method aliases to committed summary counts.
	Summaries map[string]int `yaml:"summaries,omitempty"`

	Blacklisted    []string `yaml:"blacklisted,omitempty"`
	NotBlacklisted []string `yaml:"not_blacklisted,omitempty"`
	Recorded       []string `yaml:"recorded,omitempty"`

	// Fields checks live heap values at the end of the run.
	Fields []FieldExpect `yaml:"fields,omitempty"`

	// Stats checks per-method counters.
	Stats map[string]StatsExpect `yaml:"stats,omitempty"`

	UniqueMethods   *int `yaml:"unique_methods,omitempty"`
	RecordedMethods *int `yaml:"recorded_methods,omitempty"`
}

// FieldExpect is an expected live field value.
type FieldExpect struct {
	FieldRef `yaml:",inline"`
	Value    string `yaml:"value"`
}

// StatsExpect checks the counter fields that are set.
type StatsExpect struct {
	TotalCalls     *int    `yaml:"total_calls,omitempty"`
	ArgsMatch      *int    `yaml:"args_match,omitempty"`
	Reads          *int    `yaml:"reads,omitempty"`
	Writes         *int    `yaml:"writes,omitempty"`
	AttemptedMatch *int    `yaml:"attempted_match,omitempty"`
	FailedMatch    *int    `yaml:"failed_match,omitempty"`
	Recorded       *bool   `yaml:"recorded,omitempty"`
	Interruption   *string `yaml:"interruption,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "retrun:" vs "return:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// apply returns p with every set override replaced.
func (o *PolicyOverrides) apply(p engine.Policy) engine.Policy {
	if o == nil {
		return p
	}
	if o.Capacity != 0 {
		p.Capacity = o.Capacity
	}
	if o.NativeAllow != nil {
		p.NativeAllowList = o.NativeAllow
	}
	if o.Blacklist != nil {
		p.Blacklist = nil
		for _, m := range o.Blacklist {
			p.Blacklist = append(p.Blacklist, ir.MethodID(m))
		}
	}
	if o.Patterns != nil {
		p.BlacklistPatterns = o.Patterns
	}
	if o.EntryMethod != "" {
		p.EntryMethod = ir.MethodID(o.EntryMethod)
	}
	return p
}

// validateScenario checks that required fields are present and that every
// literal, alias and handle resolves.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Runs) == 0 {
		return fmt.Errorf("runs list is required and must be non-empty")
	}

	for alias, m := range s.Methods {
		if m.ID == "" {
			return fmt.Errorf("methods.%s: id is required", alias)
		}
	}
	if s.Policy != nil && (s.Policy.Capacity < 0 || s.Policy.Capacity > summary.DefaultCapacity) {
		return fmt.Errorf("policy.capacity must be between 1 and %d", summary.DefaultCapacity)
	}

	refs := make(map[int32]bool)
	for i, obj := range s.Heap.Objects {
		if obj.Ref <= 0 {
			return fmt.Errorf("heap.objects[%d]: ref must be positive", i)
		}
		if refs[obj.Ref] {
			return fmt.Errorf("heap.objects[%d]: duplicate ref %d", i, obj.Ref)
		}
		refs[obj.Ref] = true
		if err := validateLiterals(obj.Fields); err != nil {
			return fmt.Errorf("heap.objects[%d]: %w", i, err)
		}
	}
	for i, st := range s.Heap.Statics {
		if st.Type == "" {
			return fmt.Errorf("heap.statics[%d]: type is required", i)
		}
		if err := validateLiterals(st.Fields); err != nil {
			return fmt.Errorf("heap.statics[%d]: %w", i, err)
		}
	}

	for i, run := range s.Runs {
		if len(run.Steps) == 0 {
			return fmt.Errorf("runs[%d]: steps list is required and must be non-empty", i)
		}
		if err := validateSteps(s, fmt.Sprintf("runs[%d].steps", i), run.Steps); err != nil {
			return err
		}
		if run.Expect != nil {
			if err := validateRunExpect(fmt.Sprintf("runs[%d].expect", i), run.Expect); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSteps(s *Scenario, path string, steps []Step) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		if n := step.actions(); n != 1 {
			return fmt.Errorf("%s: exactly one of call, read, write, set, native, interrupt is required (got %d)", at, n)
		}

		switch {
		case step.Call != nil:
			c := step.Call
			if _, ok := s.Methods[c.Method]; !ok {
				return fmt.Errorf("%s.call: unknown method %q", at, c.Method)
			}
			for _, a := range c.Args {
				if _, err := ir.ParseValue(a); err != nil {
					return fmt.Errorf("%s.call.args: %w", at, err)
				}
			}
			if c.Runnable < 0 {
				return fmt.Errorf("%s.call: runnable must be positive", at)
			}
			if c.Return != "" && c.ReturnField != nil {
				return fmt.Errorf("%s.call: return and return_field are exclusive", at)
			}
			if c.Return != "" {
				if _, err := ir.ParseValue(c.Return); err != nil {
					return fmt.Errorf("%s.call.return: %w", at, err)
				}
			}
			if c.ReturnField != nil {
				if err := c.ReturnField.validate(); err != nil {
					return fmt.Errorf("%s.call.return_field: %w", at, err)
				}
			}
			if c.Expect != nil && c.Expect.Return != "" && c.Expect.Return != "void" {
				if _, err := ir.ParseValue(c.Expect.Return); err != nil {
					return fmt.Errorf("%s.call.expect.return: %w", at, err)
				}
			}
			if err := validateSteps(s, at+".call.body", c.Body); err != nil {
				return err
			}
		case step.Read != nil:
			if err := step.Read.validate(); err != nil {
				return fmt.Errorf("%s.read: %w", at, err)
			}
		case step.Write != nil:
			if err := step.Write.validate(); err != nil {
				return fmt.Errorf("%s.write: %w", at, err)
			}
		case step.Set != nil:
			if err := step.Set.validate(); err != nil {
				return fmt.Errorf("%s.set: %w", at, err)
			}
		case step.Interrupt != "":
			if _, err := engine.ParseInterruptionKind(step.Interrupt); err != nil {
				return fmt.Errorf("%s: %w", at, err)
			}
		}
	}
	return nil
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{s.Call != nil, s.Read != nil, s.Write != nil, s.Set != nil, s.Native != "", s.Interrupt != ""} {
		if set {
			n++
		}
	}
	return n
}

func (f FieldRef) validate() error {
	if f.Field == "" {
		return fmt.Errorf("field is required")
	}
	if (f.Object == nil) == (f.Static == "") {
		return fmt.Errorf("exactly one of object or static is required")
	}
	return nil
}

func (w WriteStep) validate() error {
	if err := w.FieldRef.validate(); err != nil {
		return err
	}
	if _, err := ir.ParseValue(w.Value); err != nil {
		return err
	}
	if w.Kind != "" {
		if _, err := ir.ParseKind(w.Kind); err != nil {
			return err
		}
	}
	return nil
}

func validateRunExpect(path string, e *RunExpect) error {
	for i, f := range e.Fields {
		if err := f.FieldRef.validate(); err != nil {
			return fmt.Errorf("%s.fields[%d]: %w", path, i, err)
		}
		if _, err := ir.ParseValue(f.Value); err != nil {
			return fmt.Errorf("%s.fields[%d]: %w", path, i, err)
		}
	}
	return nil
}

func validateLiterals(fields map[string]string) error {
	for name, lit := range fields {
		if _, err := ir.ParseValue(lit); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}
