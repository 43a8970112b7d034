package value

import "strings"

// Reserved internal-key prefixes. Every object stores ordinary properties
// and these reserved keys in the same OrderedMap; IsInternalKey is the
// single centralized filter Invariant V1 requires enumeration (Object.keys,
// for-in, Object.values/entries) to honor.
const (
	getterPrefix  = "__getter__"
	setterPrefix  = "__setter__"
	symbolKeyPrefix = "__symprop__"
	protoKey      = "__proto__internal__"

	// Type-discriminator flags for "host object" wrapper values.
	flagIsURL      = "__isURL__"
	flagIsStorage  = "__isStorage__"
	flagIsDocument = "__isDocument__"

	// Wrapper-value slots, backed by Object.SetWrapperValue/WrapperValue.
	slotStringWrapper = "__stringWrapperValue__"
	slotSymbolWrapper = "__symbolWrapper__"
)

// IsInternalKey reports whether key is one of the reserved sentinel-prefixed
// keys that must never appear in Object.keys/values/entries or for-in.
func IsInternalKey(key string) bool {
	switch {
	case strings.HasPrefix(key, getterPrefix):
		return true
	case strings.HasPrefix(key, setterPrefix):
		return true
	case strings.HasPrefix(key, symbolKeyPrefix):
		return true
	case key == protoKey:
		return true
	case strings.HasPrefix(key, "__is") && strings.HasSuffix(key, "__"):
		return true
	case strings.HasPrefix(key, "__") && strings.HasSuffix(key, "__"):
		return true
	default:
		return false
	}
}

func getterKey(prop string) string { return getterPrefix + prop }
func setterKey(prop string) string { return setterPrefix + prop }

// symbolKey encodes a symbol id into a string key so symbol-keyed
// properties can live in the same OrderedMap as string-keyed ones while
// remaining invisible to string-keyed enumeration.
func symbolKey(id int64) string {
	return symbolKeyPrefix + itoa(id)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
