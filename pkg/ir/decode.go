package ir

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// wireBinOp/wireUnOp map the IR table's symbolic operators to BinOp/UnOp.
var wireBinOp = map[string]BinOp{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"&": OpAnd, "|": OpOr, "^": OpXor, "<<": OpShl, ">>": OpShr,
	"<": OpLt, "<=": OpLe, "==": OpEq, "!=": OpNe, ">=": OpGe, ">": OpGt,
	"&&": OpLAnd, "||": OpLOr, "+|": OpAddSat, "-|": OpSubSat,
}

var wireUnOp = map[string]UnOp{
	"!": OpNot, "~": OpCpl, "-": OpNeg, "abs": OpAbs,
}

var wireDir = map[string]Direction{
	"in": DirIn, "out": DirOut, "inout": DirInOut,
}

// envelope is the wire shape every node arrives in: a "kind" discriminant
// plus kind-specific fields left as raw JSON until the kind is known.
type envelope struct {
	Kind    string          `json:"kind"`
	Fields  json.RawMessage `json:"fields"`
}

// Decode parses one IR node (and, recursively, its whole subtree) from
// JSON bytes. Unknown kinds are reported via ErrUnsupported rather than a
// bare decode error, so a caller can map them straight onto the driver's
// UNSUPPORTED outcome (§7).
func Decode(data []byte) (Node, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "ir: decode envelope")
	}
	return decodeEnvelope(env)
}

// ErrUnsupported wraps an IR kind the interpreter does not model (§7
// "Unsupported IR").
type ErrUnsupported struct {
	Kind string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("ir: unsupported node kind %q", e.Kind)
}

func decodeEnvelope(env envelope) (Node, error) {
	switch env.Kind {
	case "Member":
		var w struct {
			LVal   json.RawMessage `json:"lval"`
			Member string          `json:"member"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Member")
		}
		lval, err := decodeRaw(w.LVal)
		if err != nil {
			return nil, err
		}
		return &Member{LVal: lval, Member: w.Member}, nil

	case "Slice":
		var w struct {
			Value json.RawMessage `json:"value"`
			Hi    int             `json:"hi"`
			Lo    int             `json:"lo"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Slice")
		}
		v, err := decodeRaw(w.Value)
		if err != nil {
			return nil, err
		}
		return &Slice{Value: v, Hi: w.Hi, Lo: w.Lo}, nil

	case "Literal":
		var w struct {
			Width uint   `json:"width"`
			Value uint64 `json:"value"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Literal")
		}
		return &Literal{Width: w.Width, Value: w.Value}, nil

	case "BinaryOp":
		var w struct {
			Op     string          `json:"op"`
			Lhs    json.RawMessage `json:"lhs"`
			Rhs    json.RawMessage `json:"rhs"`
			Signed bool            `json:"signed"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: BinaryOp")
		}
		op, ok := wireBinOp[w.Op]
		if !ok {
			return nil, &ErrUnsupported{Kind: "BinaryOp:" + w.Op}
		}
		lhs, err := decodeRaw(w.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeRaw(w.Rhs)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Op: op, Lhs: lhs, Rhs: rhs, Signed: w.Signed}, nil

	case "UnaryOp":
		var w struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: UnaryOp")
		}
		op, ok := wireUnOp[w.Op]
		if !ok {
			return nil, &ErrUnsupported{Kind: "UnaryOp:" + w.Op}
		}
		operand, err := decodeRaw(w.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: op, Operand: operand}, nil

	case "Cast":
		var w struct {
			Operand     json.RawMessage `json:"operand"`
			TargetWidth uint            `json:"target_width"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Cast")
		}
		operand, err := decodeRaw(w.Operand)
		if err != nil {
			return nil, err
		}
		return &Cast{Operand: operand, TargetWidth: w.TargetWidth}, nil

	case "Mux":
		var w struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Mux")
		}
		cond, err := decodeRaw(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeRaw(w.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeRaw(w.Else)
		if err != nil {
			return nil, err
		}
		return &Mux{Cond: cond, Then: then, Else: els}, nil

	case "Concat":
		var w struct {
			Lhs json.RawMessage `json:"lhs"`
			Rhs json.RawMessage `json:"rhs"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Concat")
		}
		lhs, err := decodeRaw(w.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeRaw(w.Rhs)
		if err != nil {
			return nil, err
		}
		return &Concat{Lhs: lhs, Rhs: rhs}, nil

	case "MethodCall":
		var w struct {
			Callee json.RawMessage   `json:"callee"`
			Method string            `json:"method"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: MethodCall")
		}
		callee, err := decodeRaw(w.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]Node, len(w.Args))
		for i, a := range w.Args {
			args[i], err = decodeRaw(a)
			if err != nil {
				return nil, err
			}
		}
		return &MethodCall{Callee: callee, Method: w.Method, Args: args}, nil

	case "Assign":
		var w struct {
			LVal json.RawMessage `json:"lval"`
			RVal json.RawMessage `json:"rval"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Assign")
		}
		lval, err := decodeRaw(w.LVal)
		if err != nil {
			return nil, err
		}
		rval, err := decodeRaw(w.RVal)
		if err != nil {
			return nil, err
		}
		return &Assign{LVal: lval, RVal: rval}, nil

	case "SliceAssign":
		var w struct {
			LVal json.RawMessage `json:"lval"`
			RVal json.RawMessage `json:"rval"`
			Hi   int             `json:"hi"`
			Lo   int             `json:"lo"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: SliceAssign")
		}
		lval, err := decodeRaw(w.LVal)
		if err != nil {
			return nil, err
		}
		rval, err := decodeRaw(w.RVal)
		if err != nil {
			return nil, err
		}
		return &SliceAssign{LVal: lval, RVal: rval, Hi: w.Hi, Lo: w.Lo}, nil

	case "Declare":
		var w struct {
			Name    string          `json:"name"`
			Initial json.RawMessage `json:"initial"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Declare")
		}
		var initial Node
		var err error
		if len(w.Initial) > 0 {
			initial, err = decodeRaw(w.Initial)
			if err != nil {
				return nil, err
			}
		}
		return &Declare{Name: w.Name, Initial: initial}, nil

	case "Block":
		var w struct {
			Stmts []json.RawMessage `json:"stmts"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Block")
		}
		stmts := make([]Node, len(w.Stmts))
		for i, s := range w.Stmts {
			n, err := decodeRaw(s)
			if err != nil {
				return nil, err
			}
			stmts[i] = n
		}
		return &Block{Stmts: stmts}, nil

	case "If":
		var w struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: If")
		}
		cond, err := decodeRaw(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeRaw(w.Then)
		if err != nil {
			return nil, err
		}
		var els Node
		if len(w.Else) > 0 {
			els, err = decodeRaw(w.Else)
			if err != nil {
				return nil, err
			}
		}
		return &If{Cond: cond, Then: then, Else: els}, nil

	case "Switch":
		var w struct {
			Table   string          `json:"table"`
			Cases   []wireCase      `json:"cases"`
			Default json.RawMessage `json:"default"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Switch")
		}
		cases := make([]SwitchCase, len(w.Cases))
		for i, c := range w.Cases {
			body, err := decodeRaw(c.Body)
			if err != nil {
				return nil, err
			}
			cases[i] = SwitchCase{Label: c.Label, Body: body}
		}
		def, err := decodeRaw(w.Default)
		if err != nil {
			return nil, err
		}
		return &Switch{Table: w.Table, Cases: cases, Default: def}, nil

	case "ActionDef":
		var w struct {
			Name   string          `json:"name"`
			Params []wireParam     `json:"params"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: ActionDef")
		}
		params, err := decodeParams(w.Params)
		if err != nil {
			return nil, err
		}
		body, err := decodeRaw(w.Body)
		if err != nil {
			return nil, err
		}
		return &ActionDef{Name: w.Name, Params: params, Body: body}, nil

	case "TableDef":
		var w struct {
			Name    string            `json:"name"`
			Keys    []json.RawMessage `json:"keys"`
			Actions []string          `json:"actions"`
			Entries []wireEntry       `json:"entries"`
			Default string            `json:"default"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: TableDef")
		}
		keys := make([]Node, len(w.Keys))
		for i, k := range w.Keys {
			n, err := decodeRaw(k)
			if err != nil {
				return nil, err
			}
			keys[i] = n
		}
		entries := make([]ConstEntry, len(w.Entries))
		for i, e := range w.Entries {
			if len(e.Keys) != len(w.Keys) {
				return nil, errors.Errorf("ir: TableDef %q: entry %d has %d keys, want %d", w.Name, i, len(e.Keys), len(w.Keys))
			}
			ks := make([]Node, len(e.Keys))
			for j, k := range e.Keys {
				n, err := decodeRaw(k)
				if err != nil {
					return nil, err
				}
				ks[j] = n
			}
			entries[i] = ConstEntry{Keys: ks, Action: e.Action}
		}
		return &TableDef{Name: w.Name, Keys: keys, Actions: w.Actions, Entries: entries, Default: w.Default}, nil

	case "ControlDef":
		var w struct {
			Name   string            `json:"name"`
			Locals []json.RawMessage `json:"locals"`
			Params []wireParam       `json:"params"`
			Body   json.RawMessage   `json:"body"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: ControlDef")
		}
		locals, err := decodeList(w.Locals)
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(w.Params)
		if err != nil {
			return nil, err
		}
		body, err := decodeRaw(w.Body)
		if err != nil {
			return nil, err
		}
		return &ControlDef{Name: w.Name, Locals: locals, Params: params, Body: body}, nil

	case "ParserDef":
		var w struct {
			Name   string            `json:"name"`
			Locals []json.RawMessage `json:"locals"`
			Params []wireParam       `json:"params"`
			Body   json.RawMessage   `json:"body"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: ParserDef")
		}
		locals, err := decodeList(w.Locals)
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(w.Params)
		if err != nil {
			return nil, err
		}
		body, err := decodeRaw(w.Body)
		if err != nil {
			return nil, err
		}
		return &ParserDef{Name: w.Name, Locals: locals, Params: params, Body: body}, nil

	case "Package":
		var w struct {
			Pipelines map[string]json.RawMessage `json:"pipelines"`
		}
		if err := json.Unmarshal(env.Fields, &w); err != nil {
			return nil, errors.Wrap(err, "ir: Package")
		}
		pipes := make(map[string]Node, len(w.Pipelines))
		for name, raw := range w.Pipelines {
			n, err := decodeRaw(raw)
			if err != nil {
				return nil, err
			}
			pipes[name] = n
		}
		return &Package{Pipelines: pipes}, nil
	}

	return nil, &ErrUnsupported{Kind: env.Kind}
}

type wireCase struct {
	Label string          `json:"label"`
	Body  json.RawMessage `json:"body"`
}

type wireParam struct {
	Name string      `json:"name"`
	Type wireSortRef `json:"type"`
	Dir  string      `json:"dir"`
}

type wireSortRef struct {
	Width uint   `json:"width"`
	Name  string `json:"name"`
}

type wireEntry struct {
	Keys   []json.RawMessage `json:"keys"`
	Action string            `json:"action"`
}

func decodeParams(ws []wireParam) ([]Param, error) {
	out := make([]Param, len(ws))
	for i, w := range ws {
		dir, ok := wireDir[w.Dir]
		if !ok {
			return nil, &ErrUnsupported{Kind: "direction:" + w.Dir}
		}
		ref := SortRef{IsScalar: w.Type.Name == "", Width: w.Type.Width, Name: w.Type.Name}
		out[i] = Param{Name: w.Name, Type: ref, Dir: dir}
	}
	return out, nil
}

func decodeRaw(data json.RawMessage) (Node, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "ir: decode node")
	}
	return decodeEnvelope(env)
}

func decodeList(raws []json.RawMessage) ([]Node, error) {
	out := make([]Node, len(raws))
	for i, r := range raws {
		n, err := decodeRaw(r)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
