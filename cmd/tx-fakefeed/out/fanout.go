package out

import "github.com/balaghali/N26Statistics/schema"

type multiErr struct {
	errors []error
}

func (me multiErr) Return() error {
	if len(me.errors) != 0 {
		return me
	}
	return nil
}

func (me multiErr) Error() string {
	var str string
	for i, e := range me.errors {
		if i > 0 {
			str += "\n"
		}
		str += e.Error()
	}
	return str
}

// FanOut publishes every flush to all of its outputs
type FanOut struct {
	outs []Out
}

func NewFanOut(outs []Out) FanOut {
	return FanOut{outs}
}

func (f FanOut) Close() error {
	var retErr multiErr
	for _, o := range f.outs {
		err := o.Close()
		if err != nil {
			retErr.errors = append(retErr.errors, err)
		}
	}
	return retErr.Return()
}

func (f FanOut) Flush(txs []schema.TransactionData) error {
	var retErr multiErr
	for _, o := range f.outs {
		err := o.Flush(txs)
		if err != nil {
			retErr.errors = append(retErr.errors, err)
		}
	}
	return retErr.Return()
}
