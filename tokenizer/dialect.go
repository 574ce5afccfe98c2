package tokenizer

import "golang.org/x/text/unicode/norm"

// Dialect describes the lexical differences between the two surface syntaxes.
type Dialect struct {
	Name string
	// Keywords maps reserved words to their token type.
	Keywords map[string]TokenType
	// Reserved words are scanned as identifiers but cannot be bound.
	Reserved map[string]bool
	// LineComment is the prefix that starts a comment running to end of line.
	LineComment string
	// BlockComments enables /* ... */ comments.
	BlockComments bool
	// FloorDivide makes "//" an operator instead of a comment.
	FloorDivide bool
	// TrailingDotFloats accepts "1." as a float literal.
	TrailingDotFloats bool
	// NormalizeIdentifiers applies NFKC to identifiers the way the Python lexer does.
	NormalizeIdentifiers bool
}

// NewJavaScriptDialect returns the dialect of the chained functional notation.
func NewJavaScriptDialect() *Dialect {
	return &Dialect{
		Name: "javascript",
		Keywords: map[string]TokenType{
			"true":       BOOLEAN,
			"false":      BOOLEAN,
			"null":       NULL,
			"const":      DECLARE,
			"let":        DECLARE,
			"var":        DECLARE,
			"function":   KEYWORD,
			"return":     KEYWORD,
			"if":         KEYWORD,
			"else":       KEYWORD,
			"for":        KEYWORD,
			"while":      KEYWORD,
			"new":        KEYWORD,
			"typeof":     KEYWORD,
			"instanceof": KEYWORD,
			"in":         KEYWORD,
			"class":      KEYWORD,
			"break":      KEYWORD,
			"case":       KEYWORD,
			"catch":      KEYWORD,
			"continue":   KEYWORD,
			"debugger":   KEYWORD,
			"default":    KEYWORD,
			"delete":     KEYWORD,
			"do":         KEYWORD,
			"enum":       KEYWORD,
			"export":     KEYWORD,
			"extends":    KEYWORD,
			"finally":    KEYWORD,
			"import":     KEYWORD,
			"super":      KEYWORD,
			"switch":     KEYWORD,
			"throw":      KEYWORD,
			"try":        KEYWORD,
			"void":       KEYWORD,
			"with":       KEYWORD,
			"yield":      KEYWORD,
			"await":      KEYWORD,
		},
		Reserved:      map[string]bool{"this": true},
		LineComment:   "//",
		BlockComments: true,
	}
}

// NewPythonDialect returns the dialect of the comprehension notation.
func NewPythonDialect() *Dialect {
	return &Dialect{
		Name: "python",
		Keywords: map[string]TokenType{
			"True":     BOOLEAN,
			"False":    BOOLEAN,
			"None":     NULL,
			"and":      AND,
			"or":       OR,
			"not":      NOT,
			"for":      FOR,
			"in":       IN,
			"if":       IF,
			"else":     KEYWORD,
			"lambda":   KEYWORD,
			"is":       KEYWORD,
			"async":    KEYWORD,
			"await":    KEYWORD,
			"yield":    KEYWORD,
			"def":      KEYWORD,
			"return":   KEYWORD,
			"class":    KEYWORD,
			"as":       KEYWORD,
			"assert":   KEYWORD,
			"break":    KEYWORD,
			"continue": KEYWORD,
			"del":      KEYWORD,
			"elif":     KEYWORD,
			"except":   KEYWORD,
			"finally":  KEYWORD,
			"from":     KEYWORD,
			"global":   KEYWORD,
			"import":   KEYWORD,
			"nonlocal": KEYWORD,
			"pass":     KEYWORD,
			"raise":    KEYWORD,
			"try":      KEYWORD,
			"while":    KEYWORD,
			"with":     KEYWORD,
		},
		LineComment:          "#",
		FloorDivide:          true,
		TrailingDotFloats:    true,
		NormalizeIdentifiers: true,
	}
}

func (d *Dialect) classifyWord(word string) (TokenType, string) {
	if d.NormalizeIdentifiers {
		word = norm.NFKC.String(word)
	}

	if tokenType, ok := d.Keywords[word]; ok {
		return tokenType, word
	}

	return IDENTIFIER, word
}

// Classify returns the token type word is scanned as.
func (d *Dialect) Classify(word string) TokenType {
	tokenType, _ := d.classifyWord(word)
	return tokenType
}

// IsKeyword reports whether word is reserved in the dialect, either as a
// keyword token or as a reserved identifier such as JavaScript's this.
func (d *Dialect) IsKeyword(word string) bool {
	if _, ok := d.Keywords[word]; ok {
		return true
	}

	return d.Reserved[word]
}
