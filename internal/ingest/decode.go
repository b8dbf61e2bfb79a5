package ingest

import (
	"time"

	"github.com/valyala/fastjson"

	lferror "github.com/msto63/logflow/foundation/core/error"
	"github.com/msto63/logflow/foundation/core/log"
)

// RemoteError stands in for an error value that crossed the wire. Only
// its type name and message survive encoding.
type RemoteError struct {
	Type    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// DecodeRecord converts one wire-format object back into a Record.
// Level, message and timestamp are required.
func DecodeRecord(v *fastjson.Value) (log.Record, error) {
	if v.Type() != fastjson.TypeObject {
		return log.Record{}, invalid("record is not an object", "type", v.Type().String())
	}

	level := string(v.GetStringBytes("level"))
	if level == "" {
		return log.Record{}, invalid("record has no level")
	}
	if v.Get("message") == nil {
		return log.Record{}, invalid("record has no message", "level", level)
	}

	ts := string(v.GetStringBytes("timestamp"))
	timestamp, err := time.Parse(log.TimestampFormat, ts)
	if err != nil {
		if timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return log.Record{}, invalid("record timestamp is not ISO-8601", "timestamp", ts)
		}
	}

	rec := log.Record{
		Level:     level,
		Message:   string(v.GetStringBytes("message")),
		Timestamp: timestamp,
	}

	if args := v.GetArray("args"); len(args) > 0 {
		rec.Args = make([]any, len(args))
		for i, a := range args {
			rec.Args[i] = toValue(a)
		}
	}

	if ctx := v.GetObject("context"); ctx != nil && ctx.Len() > 0 {
		rec.Context = make(map[string]any, ctx.Len())
		ctx.Visit(func(key []byte, val *fastjson.Value) {
			rec.Context[string(key)] = toValue(val)
		})
	}

	if src := v.GetObject("source"); src != nil {
		rec.Source = &log.Source{
			File:     string(v.GetStringBytes("source", "file")),
			Function: string(v.GetStringBytes("source", "function")),
			Line:     v.GetInt("source", "line"),
			Column:   v.GetInt("source", "column"),
		}
	}

	if oe := v.GetObject("originalError"); oe != nil {
		rec.OriginalError = &RemoteError{
			Type:    string(v.GetStringBytes("originalError", "type")),
			Message: string(v.GetStringBytes("originalError", "message")),
		}
	}
	return rec, nil
}

// toValue converts a parsed JSON value into plain Go values. Integral
// numbers become int64, other numbers float64.
func toValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if i, err := v.Int64(); err == nil {
			return i
		}
		return v.GetFloat64()
	case fastjson.TypeArray:
		arr := v.GetArray()
		out := make([]any, len(arr))
		for i, a := range arr {
			out[i] = toValue(a)
		}
		return out
	case fastjson.TypeObject:
		obj := v.GetObject()
		out := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			out[string(key)] = toValue(val)
		})
		return out
	}
	return nil
}

func invalid(msg string, kv ...string) error {
	err := lferror.New(msg).
		WithCode(lferror.CodeInvalidInput).
		WithOperation("ingest.DecodeRecord")
	for i := 0; i+1 < len(kv); i += 2 {
		err = err.WithDetail(kv[i], kv[i+1])
	}
	return err
}
