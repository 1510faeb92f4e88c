// Package typeutil holds the in-core constant tables and small pure
// functions of component 6: primitive-to-C type mapping, declarator-text
// dimension parsing, the reserved-field-name policy, and enum backing-type
// widths (§6 "Supporting tables").
package typeutil

import (
	"strconv"
	"strings"

	"github.com/jlaustill/cnextc/internal/symbol"
)

// PrimitiveToC maps a source-language primitive to its C equivalent (§6).
var PrimitiveToC = map[string]string{
	"u8":   "uint8_t",
	"u16":  "uint16_t",
	"u32":  "uint32_t",
	"u64":  "uint64_t",
	"i8":   "int8_t",
	"i16":  "int16_t",
	"i32":  "int32_t",
	"i64":  "int64_t",
	"f32":  "float",
	"f64":  "double",
	"bool": "bool",
	"void": "void",
}

// ToC applies the primitive-to-C type map. Names with no entry pass
// through unchanged (user-defined types, pointers, etc.), which is why
// applying it twice is idempotent (§8 round-trip property): a name already
// mapped to a C type (e.g. "uint8_t") has no entry of its own and returns
// unchanged on a second pass.
func ToC(primitive string) string {
	if c, ok := PrimitiveToC[primitive]; ok {
		return c
	}
	return primitive
}

// PrimitiveBitWidth maps a primitive integer type name to its bit width,
// used for enum backing-type widths (§6).
var PrimitiveBitWidth = map[string]int{
	"u8": 8, "i8": 8,
	"u16": 16, "i16": 16,
	"u32": 32, "i32": 32,
	"u64": 64, "i64": 64,
	"uint8_t": 8, "int8_t": 8,
	"uint16_t": 16, "int16_t": 16,
	"uint32_t": 32, "int32_t": 32,
	"uint64_t": 64, "int64_t": 64,
}

// BitWidthOf looks up the bit width of a primitive backing type.
func BitWidthOf(primitive string) (int, bool) {
	w, ok := PrimitiveBitWidth[primitive]
	return w, ok
}

// HeaderStdlibFunctions maps a known standard-library header to the set of
// function names it declares, used by analyzer phase 4 (define-before-use,
// case c: "standard-library function of an included header").
var HeaderStdlibFunctions = map[string]map[string]struct{}{
	"stdio.h": set("printf", "fprintf", "sprintf", "snprintf", "fgets", "fputs",
		"fgetc", "fputc", "fopen", "fclose", "fread", "fwrite", "fflush",
		"puts", "putchar", "getchar", "gets", "perror"),
	"stdlib.h": set("malloc", "calloc", "realloc", "free", "exit", "abort",
		"atoi", "atol", "atof", "strtol", "strtoul", "strtod", "rand", "srand",
		"abs", "labs", "qsort"),
	"string.h": set("strlen", "strcpy", "strncpy", "strcat", "strncat",
		"strcmp", "strncmp", "strchr", "strrchr", "strstr", "memcpy", "memmove",
		"memset", "memcmp"),
	"math.h": set("sin", "cos", "tan", "asin", "acos", "atan", "atan2", "sqrt",
		"pow", "exp", "log", "log10", "floor", "ceil", "fabs", "fmod"),
	"ctype.h": set("isalpha", "isdigit", "isalnum", "isspace", "isupper",
		"islower", "toupper", "tolower"),
	"time.h": set("time", "clock", "difftime", "mktime", "localtime",
		"gmtime", "strftime"),
	"assert.h": set("assert"),
	// Platform entry for the embedded framework's pin/IO functions (§6).
	"platform.h": set("pinMode", "digitalRead", "digitalWrite", "analogRead",
		"analogWrite", "delay", "delayMicroseconds", "millis", "micros"),
}

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// StdlibFunction reports whether name is declared by any header in
// includedHeaders.
func StdlibFunction(name string, includedHeaders []string) bool {
	for _, h := range includedHeaders {
		if fns, ok := HeaderStdlibFunctions[h]; ok {
			if _, found := fns[name]; found {
				return true
			}
		}
	}
	return false
}

// CompilerIntrinsics are names the define-before-use analyzer (phase 4,
// case b) always treats as defined.
var CompilerIntrinsics = set("safe_div", "safe_mod")

// IsCompilerIntrinsic reports whether name is a recognized intrinsic.
func IsCompilerIntrinsic(name string) bool {
	_, ok := CompilerIntrinsics[name]
	return ok
}

// StreamWhitelist is the whitelisted set of C stream functions that must be
// used only inside a NULL-equality comparison (phase 5), mapped to the
// human-readable meaning of their NULL return.
var StreamWhitelist = map[string]string{
	"fgets": "end of file or read error",
	"fputs": "write error",
	"fgetc": "end of file or read error",
	"fputc": "write error",
	"gets":  "end of file or read error",
}

// ForbiddenFunction is one entry of the forbidden-function blacklist (phase
// 5), carrying a human-readable reason.
type ForbiddenFunction struct {
	Name   string
	Reason string
}

// ForbiddenFunctions is the blacklist of entirely-forbidden functions (§4.3
// phase 5).
var ForbiddenFunctions = []ForbiddenFunction{
	{Name: "fopen", Reason: "unbounded file handle lifetime is not permitted in safety-constrained code"},
	{Name: "malloc", Reason: "dynamic allocation is not permitted in safety-constrained code"},
	{Name: "calloc", Reason: "dynamic allocation is not permitted in safety-constrained code"},
	{Name: "realloc", Reason: "dynamic allocation is not permitted in safety-constrained code"},
	{Name: "free", Reason: "dynamic allocation is not permitted in safety-constrained code"},
	{Name: "strchr", Reason: "returns NULL or an aliasing pointer with no bounds information"},
	{Name: "system", Reason: "shells out to the host OS, which has no meaning on an embedded target"},
}

// ForbiddenReason returns the reason a function is forbidden, if it is.
func ForbiddenReason(name string) (string, bool) {
	for _, f := range ForbiddenFunctions {
		if f.Name == name {
			return f.Reason, true
		}
	}
	return "", false
}

// ReservedFieldNames is the data-driven reserved-field-name policy of
// §4.2.2: currently empty (§9 open question), but checked by name rather
// than hard-coded per call site so new entries need no code changes.
var ReservedFieldNames = map[string]struct{}{}

// IsReservedFieldName reports whether a field name is reserved.
func IsReservedFieldName(name string) bool {
	_, ok := ReservedFieldNames[name]
	return ok
}

// ParseDimension resolves one declarator-text array dimension: a decimal
// integer if the text parses as one, otherwise a verbatim symbolic
// (macro/identifier) dimension (§9 "Unresolved array dimensions"). An empty
// string (the "[]" unbounded case, §4.2.1) is preserved verbatim too.
func ParseDimension(text string) symbol.Dimension {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return symbol.SymbolicDimension("")
	}
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 0 {
		return symbol.IntDimension(n)
	}
	return symbol.SymbolicDimension(trimmed)
}

// ParseDimensionWithConsts resolves a dimension using, in order: (a)
// decimal integer parse, (b) a provided map of known source-language
// constants, (c) the verbatim textual expression (§4.2.1 variable
// collection rule).
func ParseDimensionWithConsts(text string, constValues map[string]int) symbol.Dimension {
	trimmed := strings.TrimSpace(text)
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 0 {
		return symbol.IntDimension(n)
	}
	if constValues != nil {
		if v, ok := constValues[trimmed]; ok {
			return symbol.IntDimension(v)
		}
	}
	return symbol.SymbolicDimension(trimmed)
}

// StringFieldDimensions builds the dimension sequence for a source-language
// `string<N>` field: any preceding array dimensions kept in source order,
// followed by a terminator entry of N+1 (§3.3 invariant 5, §8 boundary:
// string<0> stores [1]).
func StringFieldDimensions(preceding []symbol.Dimension, n int) []symbol.Dimension {
	out := make([]symbol.Dimension, 0, len(preceding)+1)
	out = append(out, preceding...)
	out = append(out, symbol.IntDimension(n+1))
	return out
}

// BitmapFieldType returns the derived type for a bitmap field of a given
// bit width: "bool" for width 1, otherwise the smallest of u8/u16/u32 that
// holds it (§4.2.1).
func BitmapFieldType(width int) string {
	switch {
	case width <= 1:
		return "bool"
	case width <= 8:
		return "u8"
	case width <= 16:
		return "u16"
	default:
		return "u32"
	}
}

// BitSignature renders the textual signature of a bitmap field's bit range:
// "bit N" for a single bit, "bits N-M" for a multi-bit field (§4.2.1).
func BitSignature(offset, width int) string {
	if width <= 1 {
		return "bit " + strconv.Itoa(offset)
	}
	return "bits " + strconv.Itoa(offset) + "-" + strconv.Itoa(offset+width-1)
}
