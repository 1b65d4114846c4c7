package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// A Name is a hierarchical name that includes a series of tokens separated
// by dots.
type Name struct {
	Tokens []NameToken
}

// NameToken is one element of a name, for example "Tile[2][1]".
type NameToken struct {
	ElemName string
	Index    []int
}

// String turns the token back into its textual form.
func (t NameToken) String() string {
	s := t.ElemName
	for _, i := range t.Index {
		s += "[" + strconv.Itoa(i) + "]"
	}

	return s
}

// Parent returns the name without its last token.
func (n Name) Parent() string {
	tokens := make([]string, 0, len(n.Tokens))
	for _, t := range n.Tokens[:len(n.Tokens)-1] {
		tokens = append(tokens, t.String())
	}

	return strings.Join(tokens, ".")
}

// ParseName parses a name string and returns a Name object.
func ParseName(sname string) Name {
	tokens := strings.Split(sname, ".")
	name := Name{Tokens: make([]NameToken, len(tokens))}

	for i, token := range tokens {
		name.Tokens[i] = parseNameToken(token)
	}

	return name
}

func parseNameToken(token string) NameToken {
	bracketMustMatch(token)

	ts := strings.Split(token, "[")
	elemName := ts[0]

	indices := make([]int, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		if !strings.HasSuffix(ts[i], "]") {
			panic("name index must be closed by a bracket")
		}

		index, err := strconv.Atoi(ts[i][0 : len(ts[i])-1])
		if err != nil {
			panic("name index must be integer")
		}

		indices[i-1] = index
	}

	return NameToken{ElemName: elemName, Index: indices}
}

func bracketMustMatch(name string) {
	open := 0

	for _, c := range name {
		switch c {
		case '[':
			open++
			if open > 1 {
				panic("name brackets must not nest")
			}
		case ']':
			open--
			if open < 0 {
				panic("name bracket must match")
			}
		}
	}

	if open != 0 {
		panic("name bracket must match")
	}
}

// NameMustBeValid panics if the name does not follow the naming convention:
//  1. Tokens are separated by dots and none of them is empty.
//  2. Each element name starts with a capital letter and does not contain
//     underscores, dashes or quotes.
//  3. Series use square brackets, e.g. "Tile[1][0]".
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic(fmt.Sprintf("name %q is not valid: %v", name, r))
		}
	}()

	n := ParseName(name)
	for _, token := range n.Tokens {
		tokenMustBeValid(token)
	}
}

func tokenMustBeValid(token NameToken) {
	if token.ElemName == "" {
		panic("name element must not be empty")
	}

	for _, c := range []string{"_", "\"", "'", "-"} {
		if strings.Contains(token.ElemName, c) {
			panic("name element must not contain " + c)
		}
	}

	if token.ElemName[0] < 'A' || token.ElemName[0] > 'Z' {
		panic("name element must start with a capital letter")
	}
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}

// BuildNameWithMultiDimensionalIndex builds a name like "Array.Tile[2][1]".
func BuildNameWithMultiDimensionalIndex(
	parentName, elementName string,
	index ...int,
) string {
	return BuildName(parentName, NameToken{
		ElemName: elementName,
		Index:    index,
	}.String())
}
