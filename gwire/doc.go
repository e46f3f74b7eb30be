/*
Package gwire implements a schema-less binary encoding for arbitrary Go
object graphs. Every node on the wire starts with a one-byte manifest that
says how to read what follows, so a stream can be decoded without an
externally supplied schema.

Fundamental types:

	- nil: 0x00, no value bytes.
	- struct{}: 0x01, no value bytes.
	- bool: 0x06, then 0x00 or 0x01.
	- int8/int16/int32/int64: 0x14/0x03/0x08/0x02, then little-endian
	  two's complement. int is encoded as int64.
	- uint8/uint16/uint32/uint64: 0x04/0x11/0x12/0x13, then little-endian.
	  uint is encoded as uint64.
	- float32/float64: 0x0c/0x0d, then little-endian IEEE-754 bits.
	- Char: 0x0f, then a little-endian UTF-16 code unit.
	- string: 0x07, then an int32 length and the UTF-8 bytes.
	- []byte: 0x09, then an int32 length and the raw bytes.

Well-known types:

	- time.Time: 0x05, then int64 ticks of 100ns since 0001-01-01 UTC and
	  one kind byte (0 unspecified, 1 UTC, 2 local).
	- uuid.UUID: 0x0b, then the 16 raw bytes.
	- Decimal: 0x0e, then lo, mid, hi and flags as uint32s. Flags carry
	  the scale in bits 16-23 and the sign in bit 31.
	- reflect.Type: 0x10, then the canonical type name as a string.

Composite types:

	- []T and [N]T: 0xfc, the element manifest, an int32 count, then
	  count*width raw bytes for fixed-width elements, one full node per
	  element for interface elements, or each element's value. Values
	  of pointers, maps and slices are led by 0x01, or replaced by 0x00
	  for nil and 0xfd and an id for a back-reference. Slices whose
	  elements decode to another type (for example []int, whose
	  elements are int64 on the wire) are declared by their own type
	  name instead.
	- structs, pointers, maps and interfaces are declared once per call:
	  0xff and the canonical type name (0xfb, the name and the name-sorted
	  field list when version tolerance is on), or 0xfe and the uint32 id
	  the type was given when it was first declared.
	- struct value: one full node per exported field, in name order.
	- pointer value: the pointee's value.
	- map value: an int32 count, then a key node and a value node per
	  entry.
	- back-reference: 0xfd and the uint32 id of an instance seen earlier
	  in the same call (only when references are preserved).

The easiest way to use this package is through the package-level functions,
which share an Engine that preserves object references:

	var buf bytes.Buffer
	err := gwire.Encode(&Person{Name: "ada"}, &buf)

	v, err := gwire.Decode(&buf)
	person := v.(*Person)

Types that should be decodable before this process has encoded one of
their values must be registered:

	gwire.Register(&Person{})

Engines are safe for concurrent use. Each Encode or Decode call gets its own
Session, which is never shared.
*/
package gwire
