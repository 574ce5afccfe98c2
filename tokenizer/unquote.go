package tokenizer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Unquote decodes the value of a STRING token. Both dialects share the escapes
// handled here: \n \r \t \b \f \v \0 \\ \' \" \xHH and \uHHHH.
func Unquote(literal string) (string, error) {
	if len(literal) < 2 || literal[0] != literal[len(literal)-1] || (literal[0] != '\'' && literal[0] != '"') {
		return "", fmt.Errorf("%w: %s", ErrUnterminatedString, literal)
	}

	body := literal[1 : len(literal)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var builder strings.Builder
	for i := 0; i < len(body); {
		r, width := utf8.DecodeRuneInString(body[i:])
		if r != '\\' {
			builder.WriteRune(r)
			i += width
			continue
		}

		if i+1 >= len(body) {
			return "", fmt.Errorf("%w: trailing backslash", ErrInvalidEscape)
		}

		escape := body[i+1]
		i += 2

		switch escape {
		case 'n':
			builder.WriteByte('\n')
		case 'r':
			builder.WriteByte('\r')
		case 't':
			builder.WriteByte('\t')
		case 'b':
			builder.WriteByte('\b')
		case 'f':
			builder.WriteByte('\f')
		case 'v':
			builder.WriteByte('\v')
		case '0':
			builder.WriteByte(0)
		case '\\', '\'', '"':
			builder.WriteByte(escape)
		case '\n':
			// line continuation
		case 'x', 'u':
			size := 2
			if escape == 'u' {
				size = 4
			}

			if i+size > len(body) {
				return "", fmt.Errorf("%w: \\%c%s", ErrInvalidEscape, escape, body[i:])
			}

			code, err := strconv.ParseUint(body[i:i+size], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: \\%c%s", ErrInvalidEscape, escape, body[i:i+size])
			}

			builder.WriteRune(rune(code))
			i += size
		default:
			return "", fmt.Errorf("%w: \\%c", ErrInvalidEscape, escape)
		}
	}

	return builder.String(), nil
}
