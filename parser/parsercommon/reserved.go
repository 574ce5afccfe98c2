package parsercommon

import (
	pc "github.com/shibukawa/parsercombinator"

	tok "github.com/shibukawa/declo/tokenizer"
)

// RejectReserved fails when one of the free names is not an identifier in the
// other grammar, since the converted program could not spell it. The error
// points at the first identifier token with that name outside a member access.
func RejectReserved(tokens []pc.Token[Entity], free map[string]bool, other *Grammar) error {
	for i, token := range tokens {
		original := token.Val.Original
		if original.Type != tok.IDENTIFIER || !free[original.Value] || other.Dialect.Classify(original.Value) == tok.IDENTIFIER {
			continue
		}

		if i > 0 && tokens[i-1].Val.Original.Type == tok.DOT {
			continue
		}

		return NewSyntaxError(ErrUnsupportedSyntax, original,
			"%q is reserved in %s and cannot be used as a name", original.Value, other.Name)
	}

	return nil
}
