package iface

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the wire documents change.
const schemaVersion uint16 = 1

// ErrMalformed is wrapped by every decode error caused by the content of an
// interface or transform file rather than by I/O.
var ErrMalformed = errors.New("malformed interface data")

type wireType struct {
	Kind  uint8  `msgpack:"kind"`
	Const string `msgpack:"const,omitempty"`
	Shape uint32 `msgpack:"shape,omitempty"`
}

type wireCall struct {
	Name  string     `msgpack:"name"`
	Count uint32     `msgpack:"count"`
	Args  []wireType `msgpack:"args"`
}

type wireInterface struct {
	Schema     uint16     `msgpack:"schema"`
	Calls      []wireCall `msgpack:"calls"`
	References []string   `msgpack:"references"`
}

type wireRewrite struct {
	Call        wireCall `msgpack:"call"`
	NewFunction string   `msgpack:"new_function"`
	Args        []uint32 `msgpack:"args"`
}

type wireTransform struct {
	Schema uint16        `msgpack:"schema"`
	Calls  []wireRewrite `msgpack:"calls"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func encodeType(t Type) wireType {
	return wireType{Kind: uint8(t.kind), Const: t.lit, Shape: t.shape}
}

func decodeType(w wireType) (Type, error) {
	switch Kind(w.Kind) {
	case KindUnknown:
		return Unknown(), nil
	case KindConstant:
		if w.Const == "" {
			return Type{}, malformed("constant without payload")
		}
		return Constant(w.Const), nil
	case KindShape:
		return Shape(w.Shape), nil
	}
	return Type{}, malformed("unknown argument kind %d", w.Kind)
}

func encodeCall(fn string, info *CallInfo) wireCall {
	w := wireCall{Name: fn, Count: info.Count, Args: make([]wireType, len(info.Args))}
	for i, t := range info.Args {
		w.Args[i] = encodeType(t)
	}
	return w
}

func decodeCall(w wireCall) ([]Type, error) {
	if w.Name == "" {
		return nil, malformed("call record without function name")
	}
	args := make([]Type, len(w.Args))
	for i, a := range w.Args {
		t, err := decodeType(a)
		if err != nil {
			return nil, fmt.Errorf("call to %s, argument %d: %w", w.Name, i, err)
		}
		args[i] = t
	}
	return args, nil
}

func checkSchema(got uint16) error {
	if got != schemaVersion {
		return malformed("schema version %d, want %d", got, schemaVersion)
	}
	return nil
}

// Encode serializes the interface.
func (ci *ComponentInterface) Encode() ([]byte, error) {
	doc := wireInterface{Schema: schemaVersion, References: ci.References()}
	for fn := range ci.Functions() {
		for info := range ci.Calls(fn) {
			doc.Calls = append(doc.Calls, encodeCall(fn, info))
		}
	}
	return msgpack.Marshal(&doc)
}

// Decode appends every call record and reference of data to ci. Records are
// appended as they are; they are not merged with existing entries. On error
// ci may be partially populated.
func (ci *ComponentInterface) Decode(data []byte) error {
	var doc wireInterface
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkSchema(doc.Schema); err != nil {
		return err
	}
	for _, c := range doc.Calls {
		args, err := decodeCall(c)
		if err != nil {
			return err
		}
		ci.newCall(c.Name, args, c.Count)
	}
	for _, ref := range doc.References {
		ci.Reference(ref)
	}
	return nil
}

// Encode serializes every registered rewrite together with the summary entry
// it is attached to.
func (t *Transform) Encode() ([]byte, error) {
	t.mustInterface()
	doc := wireTransform{Schema: schemaVersion}
	for fn := range t.iface.Functions() {
		for info := range t.iface.Calls(fn) {
			rw, ok := t.RewriteFor(fn, info)
			if !ok {
				continue
			}
			rec := wireRewrite{
				Call:        encodeCall(fn, info),
				NewFunction: rw.Function,
				Args:        make([]uint32, len(rw.Args)),
			}
			for i, idx := range rw.Args {
				u, err := safecast.Conv[uint32](idx)
				if err != nil {
					return nil, fmt.Errorf("rewrite of %s: argument index %d: %w", fn, idx, err)
				}
				rec.Args[i] = u
			}
			doc.Calls = append(doc.Calls, rec)
		}
	}
	return msgpack.Marshal(&doc)
}

// DecodeInterface appends the interface document data to t's interface,
// creating the interface if t has none.
func (t *Transform) DecodeInterface(data []byte) error {
	return t.ensureInterface().Decode(data)
}

// DecodeTransform rebuilds rewrites from data. Each record's call shape is
// resolved to the structurally equal entry of t's interface, or a new one,
// its count is added to that entry, and the rewrite is registered for it.
func (t *Transform) DecodeTransform(data []byte) error {
	var doc wireTransform
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkSchema(doc.Schema); err != nil {
		return err
	}
	ci := t.ensureInterface()
	for _, rec := range doc.Calls {
		args, err := decodeCall(rec.Call)
		if err != nil {
			return err
		}
		if rec.NewFunction == "" {
			return malformed("rewrite of %s without target function", rec.Call.Name)
		}
		info := ci.GetOrCreateCall(rec.Call.Name, args)
		if info.Count > math.MaxUint32-rec.Call.Count {
			return malformed("count of %s%s overflows: %d + %d", rec.Call.Name, info, info.Count, rec.Call.Count)
		}
		info.Count += rec.Call.Count

		rw := CallRewrite{Function: rec.NewFunction, Args: make([]int, len(rec.Args))}
		for i, u := range rec.Args {
			idx, err := safecast.Conv[int](u)
			if err != nil {
				return malformed("rewrite of %s: argument index %d: %v", rec.Call.Name, u, err)
			}
			rw.Args[i] = idx
		}
		t.Rewrite(rec.Call.Name, info, rw)
	}
	return nil
}

// ReadFromFile decodes the interface file at path into ci, see Decode.
func (ci *ComponentInterface) ReadFromFile(path string) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err := ci.Decode(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteToFile atomically replaces path with the encoded interface.
func (ci *ComponentInterface) WriteToFile(path string) error {
	data, err := ci.Encode()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// ReadInterfaceFromFile decodes the interface file at path into t's
// interface.
func (t *Transform) ReadInterfaceFromFile(path string) error {
	return t.ensureInterface().ReadFromFile(path)
}

// ReadTransformFromFile decodes the transform file at path into t, see
// DecodeTransform.
func (t *Transform) ReadTransformFromFile(path string) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err := t.DecodeTransform(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteToFile atomically replaces path with the encoded transform.
func (t *Transform) WriteToFile(path string) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		panic("iface: empty file name")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface file: %w", err)
	}
	return data, nil
}

// fileMode is the permission of written interface and transform files.
const fileMode = 0o644

func writeFile(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err = f.Chmod(fileMode); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
