package gwire

import "fmt"

// Manifest tags. These values are part of the wire format.
const (
	TagNull       byte = 0
	TagObject     byte = 1
	TagInt64      byte = 2
	TagInt16      byte = 3
	TagByte       byte = 4
	TagDateTime   byte = 5
	TagBool       byte = 6
	TagString     byte = 7
	TagInt32      byte = 8
	TagByteBuffer byte = 9
	TagUUID       byte = 11
	TagFloat32    byte = 12
	TagFloat64    byte = 13
	TagDecimal    byte = 14
	TagChar       byte = 15
	TagTypeValue  byte = 16
	TagUint16     byte = 17
	TagUint32     byte = 18
	TagUint64     byte = 19
	TagInt8       byte = 20

	// Tags assigned to caller-registered codecs, in registration order.
	TagCustomFirst byte = 21
	TagCustomLast  byte = 250

	TagNewTypeWithFields byte = 251
	TagArray             byte = 252
	TagReference         byte = 253
	TagKnownType         byte = 254
	TagNewType           byte = 255
)

// MaxCustomCodecs is the number of tags available to custom codecs.
const MaxCustomCodecs = int(TagCustomLast-TagCustomFirst) + 1

func isCustomTag(tag byte) bool {
	return tag >= TagCustomFirst && tag <= TagCustomLast
}

// TagName returns a short human-readable name for a manifest tag.
func TagName(tag byte) string {
	switch tag {
	case TagNull:
		return "null"
	case TagObject:
		return "object"
	case TagInt64:
		return "int64"
	case TagInt16:
		return "int16"
	case TagByte:
		return "byte"
	case TagDateTime:
		return "datetime"
	case TagBool:
		return "bool"
	case TagString:
		return "string"
	case TagInt32:
		return "int32"
	case TagByteBuffer:
		return "bytes"
	case TagUUID:
		return "uuid"
	case TagFloat32:
		return "float32"
	case TagFloat64:
		return "float64"
	case TagDecimal:
		return "decimal"
	case TagChar:
		return "char"
	case TagTypeValue:
		return "type"
	case TagUint16:
		return "uint16"
	case TagUint32:
		return "uint32"
	case TagUint64:
		return "uint64"
	case TagInt8:
		return "int8"
	case TagNewTypeWithFields:
		return "new-type-fields"
	case TagArray:
		return "array"
	case TagReference:
		return "ref"
	case TagKnownType:
		return "known-type"
	case TagNewType:
		return "new-type"
	}
	if isCustomTag(tag) {
		return fmt.Sprintf("custom(%d)", tag)
	}
	return fmt.Sprintf("reserved(%d)", tag)
}
