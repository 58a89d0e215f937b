package planproof

// Header is the plan stream's prefix: the table names the plan reads from,
// the column metadata binding each referenced column to its table and type,
// and the output column names the result verifier checks against.
type Header struct {
	TableNames  []string
	Columns     []ColumnMeta
	OutputNames []string
}

// ColumnMeta binds a referenced source column to its table and declared
// column variant.
type ColumnMeta struct {
	TableIdx uint64
	Name     string
	Variant  uint32
}

// ParseHeader decodes the plan prefix (table names, column metadata, output
// column names) and returns it together with the remaining bytes, positioned
// at the plan-node root.
func ParseHeader(buf []byte) (Header, []byte, error) {
	d := &Decoder{buf: buf}
	var h Header

	nTables, err := d.readU64()
	if err != nil {
		return Header{}, nil, err
	}
	h.TableNames = make([]string, 0, nTables)
	for i := uint64(0); i < nTables; i++ {
		name, err := d.readString()
		if err != nil {
			return Header{}, nil, err
		}
		h.TableNames = append(h.TableNames, name)
	}

	nCols, err := d.readU64()
	if err != nil {
		return Header{}, nil, err
	}
	h.Columns = make([]ColumnMeta, 0, nCols)
	for i := uint64(0); i < nCols; i++ {
		tableIdx, err := d.readU64()
		if err != nil {
			return Header{}, nil, err
		}
		if tableIdx >= nTables {
			return Header{}, nil, ErrTruncatedPlan
		}
		name, err := d.readString()
		if err != nil {
			return Header{}, nil, err
		}
		variant, err := d.readU32()
		if err != nil {
			return Header{}, nil, err
		}
		h.Columns = append(h.Columns, ColumnMeta{TableIdx: tableIdx, Name: name, Variant: variant})
	}

	nOut, err := d.readU64()
	if err != nil {
		return Header{}, nil, err
	}
	h.OutputNames = make([]string, 0, nOut)
	for i := uint64(0); i < nOut; i++ {
		name, err := d.readString()
		if err != nil {
			return Header{}, nil, err
		}
		h.OutputNames = append(h.OutputNames, name)
	}

	return h, buf[d.pos:], nil
}

func (d *Decoder) readString() (string, error) {
	n, err := d.readU64()
	if err != nil {
		return "", err
	}
	if n > uint64(len(d.buf)-d.pos) {
		return "", ErrTruncatedPlan
	}
	b, err := d.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
