package jsast

// Keywords are JavaScript keywords and strict mode reserved words. None of
// them may be used as a binding name.
var Keywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true,

	// strict mode
	"implements": true, "interface": true, "let": true, "package": true,
	"private": true, "protected": true, "public": true, "static": true,
	"arguments": true, "eval": true,
}

// Globals are runtime names the generated code relies on. Compiled
// functions and constants must never shadow them.
var Globals = map[string]bool{
	"Array": true, "Boolean": true, "Date": true, "Error": true, "Infinity": true,
	"JSON": true, "Map": true, "Math": true, "NaN": true, "Number": true,
	"Object": true, "Set": true, "String": true, "Symbol": true,
	"console": true, "document": true, "globalThis": true, "isFinite": true,
	"isNaN": true, "parseFloat": true, "parseInt": true, "undefined": true,
	"window": true,
}

// IsReserved reports whether name may not be used for a generated binding.
func IsReserved(name string) bool {
	return Keywords[name] || Globals[name]
}
