package models

import (
	"github.com/shopspring/decimal"
	"github.com/tinylib/msgp/msgp"
)

// amounts are encoded as strings, msgpack has no decimal type.

// MarshalMsg implements msgp.Marshaler
func (s Statistics) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, s.Msgsize())
	// map header, size 5
	o = msgp.AppendMapHeader(o, 5)
	o = msgp.AppendString(o, "sum")
	o = msgp.AppendString(o, s.Sum.String())
	o = msgp.AppendString(o, "avg")
	o = msgp.AppendString(o, s.Avg.String())
	o = msgp.AppendString(o, "max")
	o = msgp.AppendString(o, s.Max.String())
	o = msgp.AppendString(o, "min")
	o = msgp.AppendString(o, s.Min.String())
	o = msgp.AppendString(o, "count")
	o = msgp.AppendInt(o, s.Count)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (s *Statistics) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var n uint32
	n, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for n > 0 {
		n--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		key := msgp.UnsafeString(field)
		var target *decimal.Decimal
		switch key {
		case "sum":
			target = &s.Sum
		case "avg":
			target = &s.Avg
		case "max":
			target = &s.Max
		case "min":
			target = &s.Min
		case "count":
			s.Count, bts, err = msgp.ReadIntBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "count")
				return
			}
			continue
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
			continue
		}
		var str string
		str, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			err = msgp.WrapError(err, key)
			return
		}
		*target, err = decimal.NewFromString(str)
		if err != nil {
			err = msgp.WrapError(err, key)
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (s Statistics) Msgsize() int {
	size := 1 + 4*(4+msgp.StringPrefixSize) + 6 + msgp.IntSize
	for _, d := range []decimal.Decimal{s.Sum, s.Avg, s.Max, s.Min} {
		size += len(d.String())
	}
	return size
}
