package harness

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/u-ask/uask-dom-sub000/internal/compiler"
	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// ParticipantFile is the YAML form of a participant history.
//
//	code: "001"
//	sample: S1
//	interviews:
//	  - id: incl
//	    type: Inclusion
//	    items:
//	      POIDS: 70
//	      TAILLE: {value: 1.6, unit: m}
//	      AE[2]: headache
//	      IMC: null
type ParticipantFile struct {
	Code       string          `yaml:"code" validate:"required"`
	Sample     string          `yaml:"sample,omitempty"`
	Interviews []InterviewFile `yaml:"interviews" validate:"dive"`
}

// InterviewFile is one interview of a ParticipantFile. Interviews with
// no ID get one from the generator passed to Build.
type InterviewFile struct {
	ID    string               `yaml:"id,omitempty"`
	Type  string               `yaml:"type" validate:"required"`
	Items map[string]ItemValue `yaml:"items,omitempty"`
}

// ItemValue is a record value. In YAML it is either a bare scalar or a
// mapping with the keys value, unit, special, messages and acknowledged.
// A bare null enters the item with no value.
type ItemValue struct {
	Value        any               `yaml:"value"`
	Unit         string            `yaml:"unit,omitempty"`
	Special      string            `yaml:"special,omitempty"`
	Messages     map[string]string `yaml:"messages,omitempty"`
	Acknowledged []string          `yaml:"acknowledged,omitempty"`
}

// UnmarshalYAML accepts both the bare and the mapping form.
func (v *ItemValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return node.Decode(&v.Value)
	}
	type plain ItemValue
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = ItemValue(p)
	return nil
}

// LoadParticipant reads a participant YAML file.
func LoadParticipant(path string) (*ParticipantFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read participant file: %w", err)
	}

	var p ParticipantFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid participant: %w", err)
	}
	return &p, nil
}

// Build resolves the file against a compiled survey. Items are entered
// in key order so the resulting records do not depend on map iteration.
//
// Interviews without an id take the next one from ids; with a nil ids they
// are named <code>-<position>, position counting from 1, so rebuilding the
// same file yields the same ids.
func (f *ParticipantFile) Build(s *compiler.Survey, ids survey.IDGenerator) (survey.Participant, error) {
	p := survey.Participant{Code: f.Code, SampleCode: f.Sample}
	seen := map[string]bool{}
	for i, iv := range f.Interviews {
		ps, ok := s.PageSet(iv.Type)
		if !ok {
			return p, fmt.Errorf("interviews[%d]: unknown page set %q", i, iv.Type)
		}
		id := iv.ID
		switch {
		case id != "":
		case ids != nil:
			id = ids.Generate()
		default:
			id = fmt.Sprintf("%s-%d", f.Code, i+1)
		}
		if seen[id] {
			return p, fmt.Errorf("interviews[%d]: duplicate interview id %q", i, id)
		}
		seen[id] = true

		var items []survey.InterviewItem
		for _, name := range slices.Sorted(maps.Keys(iv.Items)) {
			item, err := buildItem(s.Registry, name, iv.Items[name])
			if err != nil {
				return p, fmt.Errorf("interviews[%d].items.%s: %w", i, name, err)
			}
			items = append(items, item)
		}
		p.Interviews = append(p.Interviews, survey.NewInterview(id, ps, items...))
	}
	return p, nil
}

func buildItem(reg *survey.Registry, name string, v ItemValue) (survey.InterviewItem, error) {
	key, err := ParseKey(name)
	if err != nil {
		return survey.InterviewItem{}, err
	}
	def, err := reg.Resolve(key)
	if err != nil {
		return survey.InterviewItem{}, err
	}

	value, err := ir.FromAny(v.Value)
	if err != nil {
		return survey.InterviewItem{}, err
	}
	item := survey.NewInterviewItem(def, value)

	if v.Unit != "" {
		if !def.AcceptsUnit(v.Unit) {
			return item, fmt.Errorf("unit %q not accepted", v.Unit)
		}
		item = item.WithUnit(v.Unit)
	}
	if v.Special != "" {
		special := survey.Special(v.Special)
		if !special.Valid() {
			return item, fmt.Errorf("unknown special value %q", v.Special)
		}
		if value != nil {
			return item, fmt.Errorf("special value %q given with a value", v.Special)
		}
		item = item.WithSpecial(special)
	}
	if len(v.Messages) > 0 || len(v.Acknowledged) > 0 {
		item = item.WithMessages(survey.NewMessages(v.Messages).Acknowledge(v.Acknowledged...))
	}
	return item, nil
}

// ParseKey parses VAR or VAR[n] into an item key.
func ParseKey(s string) (survey.Key, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		if s == "" {
			return survey.Key{}, fmt.Errorf("empty item name")
		}
		return survey.Key{Variable: s}, nil
	}
	if open == 0 || !strings.HasSuffix(s, "]") {
		return survey.Key{}, fmt.Errorf("malformed item key %q", s)
	}
	n, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil || n < 1 {
		return survey.Key{}, fmt.Errorf("malformed instance in %q", s)
	}
	return survey.Key{Variable: s[:open], Instance: n}, nil
}
