package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

// jsonProgram/jsonFunction/jsonItem mirror the wire format from spec §6:
// {"functions": [{"name": string, "instrs": [item, ...]}, ...]}.
type jsonProgram struct {
	Functions []jsonFunction `json:"functions"`
}

type jsonFunction struct {
	Name   string            `json:"name"`
	Instrs []json.RawMessage `json:"instrs"`
}

// jsonItem is the union of every field any label or instruction may carry;
// which fields are populated determines the concrete Item produced.
type jsonItem struct {
	Label  *string         `json:"label,omitempty"`
	Op     *string         `json:"op,omitempty"`
	Args   []string        `json:"args,omitempty"`
	Dest   *string         `json:"dest,omitempty"`
	Type   json.RawMessage `json:"type,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Labels []string        `json:"labels,omitempty"`
}

// Decode parses a program from its JSON wire format.
func Decode(data []byte) (*Program, error) {
	var jp jsonProgram
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&jp); err != nil {
		return nil, errors.Wrap(err, "decode program")
	}

	prog := &Program{Functions: make(map[string]*Function)}
	for _, jf := range jp.Functions {
		fn := &Function{Name: jf.Name}
		for idx, raw := range jf.Instrs {
			item, err := decodeItem(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "function %q, item %d", jf.Name, idx)
			}
			fn.Items = append(fn.Items, item)
		}
		if _, dup := prog.Functions[fn.Name]; dup {
			return nil, errors.Errorf("duplicate function %q", fn.Name)
		}
		prog.Functions[fn.Name] = fn
		prog.Order = append(prog.Order, fn.Name)
	}
	return prog, nil
}

func decodeItem(raw json.RawMessage) (Item, error) {
	var ji jsonItem
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&ji); err != nil {
		return nil, errors.Wrap(err, "decode item")
	}

	if ji.Label != nil {
		return &Label{Name: *ji.Label}, nil
	}
	if ji.Op == nil {
		return nil, errors.New("item is neither a label nor carries \"op\"")
	}
	op := Op(*ji.Op)
	shape, ok := ShapeOf(op)
	if !ok {
		return nil, errors.Errorf("unknown opcode %q", *ji.Op)
	}

	switch shape {
	case ShapeConstant:
		if ji.Dest == nil {
			return nil, errors.Errorf("const instruction missing dest")
		}
		typ, err := decodeType(ji.Type)
		if err != nil {
			return nil, err
		}
		val, err := decodeConstValue(ji.Value, typ)
		if err != nil {
			return nil, err
		}
		return &ConstInstr{Dest: *ji.Dest, Type: typ, Value: val}, nil

	case ShapeValue:
		if ji.Dest == nil {
			return nil, errors.Errorf("%s instruction missing dest", op)
		}
		if len(ji.Type) == 0 {
			return nil, errors.Errorf("%s instruction missing type", op)
		}
		typ, err := decodeType(ji.Type)
		if err != nil {
			return nil, err
		}
		return &ValueInstr{Op: op, Dest: *ji.Dest, Type: typ, Args: ji.Args}, nil

	default: // ShapeEffect
		return &EffectInstr{Op: op, Args: ji.Args, Labels: ji.Labels}, nil
	}
}

func decodeType(raw json.RawMessage) (Type, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "int":
			return IntType{}, nil
		case "bool":
			return BoolType{}, nil
		case "ptr":
			return PointerType{}, nil
		default:
			return nil, errors.Errorf("unknown type %q", s)
		}
	}

	var obj struct {
		Ptr json.RawMessage `json:"ptr"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Ptr == nil {
		return nil, errors.Errorf("malformed type descriptor %s", raw)
	}
	elem, err := decodeType(obj.Ptr)
	if err != nil {
		return nil, err
	}
	return PointerType{Elem: elem}, nil
}

func decodeConstValue(raw json.RawMessage, typ Type) (interface{}, error) {
	if len(raw) == 0 {
		return nil, errors.New("const instruction missing value")
	}
	switch typ.(type) {
	case BoolType:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, errors.Wrap(err, "const value is not a bool")
		}
		return b, nil
	case IntType:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return nil, errors.Wrap(err, "const value is not an int")
		}
		n, ok := new(big.Int).SetString(num.String(), 10)
		if !ok {
			return nil, errors.Errorf("const value %q is not an integer", num.String())
		}
		return n, nil
	default:
		return nil, errors.Errorf("const instruction has unsupported type %s", typ)
	}
}

// Encode serializes a program to its JSON wire format.
func Encode(p *Program) ([]byte, error) {
	jp := jsonProgram{}
	for _, name := range p.Order {
		fn := p.Functions[name]
		jf := jsonFunction{Name: fn.Name}
		for _, item := range fn.Items {
			raw, err := encodeItem(item)
			if err != nil {
				return nil, errors.Wrapf(err, "function %q", fn.Name)
			}
			jf.Instrs = append(jf.Instrs, raw)
		}
		jp.Functions = append(jp.Functions, jf)
	}
	return json.MarshalIndent(jp, "", "  ")
}

func encodeItem(item Item) (json.RawMessage, error) {
	switch i := item.(type) {
	case *Label:
		return json.Marshal(struct {
			Label string `json:"label"`
		}{i.Name})
	case *ConstInstr:
		return json.Marshal(struct {
			Op    Op          `json:"op"`
			Dest  string      `json:"dest"`
			Type  typeJSON    `json:"type"`
			Value interface{} `json:"value"`
		}{OpConst, i.Dest, typeJSON{i.Type}, constValueJSON(i.Value)})
	case *ValueInstr:
		return json.Marshal(struct {
			Op   Op       `json:"op"`
			Dest string   `json:"dest"`
			Type typeJSON `json:"type"`
			Args []string `json:"args,omitempty"`
		}{i.Op, i.Dest, typeJSON{i.Type}, i.Args})
	case *EffectInstr:
		return json.Marshal(struct {
			Op     Op       `json:"op"`
			Args   []string `json:"args,omitempty"`
			Labels []string `json:"labels,omitempty"`
		}{i.Op, i.Args, i.Labels})
	default:
		return nil, fmt.Errorf("unknown item type %T", item)
	}
}

func constValueJSON(v interface{}) interface{} {
	if n, ok := v.(*big.Int); ok {
		return json.Number(n.String())
	}
	return v
}

// typeJSON implements custom marshaling of Type back to the §6 wire format.
type typeJSON struct{ t Type }

func (t typeJSON) MarshalJSON() ([]byte, error) {
	switch ty := t.t.(type) {
	case IntType:
		return json.Marshal("int")
	case BoolType:
		return json.Marshal("bool")
	case PointerType:
		if ty.Elem == nil {
			return json.Marshal("ptr")
		}
		return json.Marshal(struct {
			Ptr typeJSON `json:"ptr"`
		}{typeJSON{ty.Elem}})
	default:
		return nil, fmt.Errorf("unknown type %T", t.t)
	}
}
