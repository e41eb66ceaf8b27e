package store

import (
	"fmt"

	"github.com/u-ask/uask-dom-sub000/internal/ir"
	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Catalog resolves the item definitions and page sets a stored interview
// refers to.
type Catalog struct {
	Registry *survey.Registry
	PageSets []*survey.PageSet
}

func (c Catalog) pageSet(typ string) (*survey.PageSet, bool) {
	for _, ps := range c.PageSets {
		if ps.Type == typ {
			return ps, true
		}
	}
	return nil, false
}

// marshalInterview renders an interview as canonical JSON TEXT. Items
// keep their order; undefined values are omitted.
func marshalInterview(iv survey.Interview) (string, error) {
	items := make(ir.Array, len(iv.Items))
	for i, item := range iv.Items {
		key := item.Key()
		entry := ir.Object{
			"variable": ir.String(key.Variable),
			"instance": ir.Number(key.Instance),
		}
		if err := embedValue(entry, "value", item.Value); err != nil {
			return "", fmt.Errorf("marshal interview %s: %s: %w", iv.ID, key, err)
		}
		if err := embedValue(entry, "memento", item.Memento); err != nil {
			return "", fmt.Errorf("marshal interview %s: %s: %w", iv.ID, key, err)
		}
		if item.Unit != "" {
			entry["unit"] = ir.String(item.Unit)
		}
		if item.Special != survey.SpecialNone {
			entry["special"] = ir.String(item.Special)
		}
		if item.Context != 0 {
			entry["context"] = ir.Number(item.Context)
		}
		if item.Messages.Len() > 0 {
			msgs := ir.Object{}
			for _, name := range item.Messages.Names() {
				text, _ := item.Messages.Get(name)
				msgs[name] = ir.String(text)
			}
			entry["messages"] = msgs
		}
		if acks := item.Messages.Acks(); len(acks) > 0 {
			arr := make(ir.Array, len(acks))
			for j, a := range acks {
				arr[j] = ir.String(a)
			}
			entry["acknowledged"] = arr
		}
		items[i] = entry
	}

	data, err := ir.MarshalCanonical(ir.Object{
		"id":    ir.String(iv.ID),
		"type":  ir.String(iv.Type()),
		"items": items,
	})
	if err != nil {
		return "", fmt.Errorf("marshal interview: %w", err)
	}
	return string(data), nil
}

// unmarshalInterview parses marshalInterview output back into an
// interview bound to the definitions of c.
func unmarshalInterview(data string, c Catalog) (survey.Interview, error) {
	v, err := ir.Unmarshal([]byte(data))
	if err != nil {
		return survey.Interview{}, fmt.Errorf("unmarshal interview: %w", err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return survey.Interview{}, fmt.Errorf("unmarshal interview: expected object, got %T", v)
	}

	id, _ := obj["id"].(ir.String)
	typ, _ := obj["type"].(ir.String)
	ps, ok := c.pageSet(string(typ))
	if !ok {
		return survey.Interview{}, fmt.Errorf("unmarshal interview %s: unknown page set %q", id, typ)
	}

	arr, _ := obj["items"].(ir.Array)
	items := make([]survey.InterviewItem, 0, len(arr))
	for i, raw := range arr {
		entry, ok := raw.(ir.Object)
		if !ok {
			return survey.Interview{}, fmt.Errorf("unmarshal interview %s: item %d is not an object", id, i)
		}
		item, err := unmarshalItem(entry, c.Registry)
		if err != nil {
			return survey.Interview{}, fmt.Errorf("unmarshal interview %s: item %d: %w", id, i, err)
		}
		items = append(items, item)
	}
	return survey.NewInterview(string(id), ps, items...), nil
}

func unmarshalItem(entry ir.Object, reg *survey.Registry) (survey.InterviewItem, error) {
	variable, _ := entry["variable"].(ir.String)
	instance, _ := entry["instance"].(ir.Number)
	def, err := reg.Resolve(survey.Key{Variable: string(variable), Instance: int(instance)})
	if err != nil {
		return survey.InterviewItem{}, err
	}

	item := survey.InterviewItem{Item: def}
	if item.Value, err = extractValue(entry, "value"); err != nil {
		return survey.InterviewItem{}, err
	}
	if item.Memento, err = extractValue(entry, "memento"); err != nil {
		return survey.InterviewItem{}, err
	}
	if unit, ok := entry["unit"].(ir.String); ok {
		item.Unit = string(unit)
	}
	if special, ok := entry["special"].(ir.String); ok {
		item.Special = survey.Special(special)
	}
	if ctx, ok := entry["context"].(ir.Number); ok {
		item.Context = int(ctx)
	}

	text := map[string]string{}
	if msgs, ok := entry["messages"].(ir.Object); ok {
		for name, v := range msgs {
			s, _ := v.(ir.String)
			text[name] = string(s)
		}
	}
	var acks []string
	if arr, ok := entry["acknowledged"].(ir.Array); ok {
		for _, v := range arr {
			s, _ := v.(ir.String)
			acks = append(acks, string(s))
		}
	}
	item.Messages = survey.NewMessages(text).Acknowledge(acks...)
	return item, nil
}

// embedValue stores v as a nested JSON string so that null survives the
// round trip; ir.Unmarshal only keeps null at the top level.
func embedValue(entry ir.Object, field string, v ir.Value) error {
	if v == nil {
		return nil
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return err
	}
	entry[field] = ir.String(data)
	return nil
}

func extractValue(entry ir.Object, field string) (ir.Value, error) {
	raw, ok := entry[field].(ir.String)
	if !ok {
		return nil, nil
	}
	v, err := ir.Unmarshal([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}
