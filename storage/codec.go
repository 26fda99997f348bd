package storage

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/torchlight/gserver/script"
)

// wireValue is the stored form of a script value. Canonical CBOR keeps
// the encoding byte-stable across saves of equal values.
type wireValue struct {
	Kind uint8       `cbor:"1,keyasint"`
	Num  float64     `cbor:"2,keyasint,omitempty"`
	Bool bool        `cbor:"3,keyasint,omitempty"`
	Str  string      `cbor:"4,keyasint,omitempty"`
	Arr  []wireValue `cbor:"5,keyasint,omitempty"`
	Ref  *wireRef    `cbor:"6,keyasint,omitempty"`
}

type wireRef struct {
	Kind uint8  `cbor:"1,keyasint"`
	ID   string `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

func toWire(v script.Value) wireValue {
	w := wireValue{Kind: uint8(v.Kind)}
	switch v.Kind {
	case script.KindNumber:
		w.Num = v.Num()
	case script.KindBool:
		w.Bool = v.IsTruthy()
	case script.KindString:
		w.Str = v.Str()
	case script.KindArray:
		elems := v.Elems()
		w.Arr = make([]wireValue, len(elems))
		for i, e := range elems {
			w.Arr[i] = toWire(e)
		}
	case script.KindObject:
		ref := v.Ref()
		w.Ref = &wireRef{Kind: uint8(ref.Kind), ID: ref.ID}
	}
	return w
}

func fromWire(w wireValue) script.Value {
	switch script.ValueKind(w.Kind) {
	case script.KindNumber:
		return script.Number(w.Num)
	case script.KindBool:
		return script.Bool(w.Bool)
	case script.KindString:
		return script.String(w.Str)
	case script.KindArray:
		elems := make([]script.Value, len(w.Arr))
		for i, e := range w.Arr {
			elems[i] = fromWire(e)
		}
		return script.Array(elems)
	case script.KindObject:
		if w.Ref == nil {
			return script.Null
		}
		return script.Object(script.ObjectRef{Kind: script.ObjectKind(w.Ref.Kind), ID: w.Ref.ID})
	}
	return script.Null
}

// EncodeValue renders one value to its stored CBOR form.
func EncodeValue(v script.Value) ([]byte, error) {
	return encMode.Marshal(toWire(v))
}

// DecodeValue parses a stored CBOR value.
func DecodeValue(data []byte) (script.Value, error) {
	var w wireValue
	if err := decMode.Unmarshal(data, &w); err != nil {
		return script.Null, err
	}
	return fromWire(w), nil
}
