package filter

import "fmt"

// Kind says in which context a filter is used
type Kind int

const (
	KindRow Kind = iota
	KindStats
	KindWaitCondition
)

func (k Kind) String() string {
	switch k {
	case KindRow:
		return "row"
	case KindStats:
		return "stats"
	case KindWaitCondition:
		return "wait_condition"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// RelationalOperator is a comparison as spelled in a filter header
type RelationalOperator int

const (
	Equal RelationalOperator = iota
	NotEqual
	Matches
	DoesntMatch
	EqualICase
	NotEqualICase
	MatchesICase
	DoesntMatchICase
	Less
	GreaterOrEqual
	Greater
	LessOrEqual
)

var operatorNames = [...]string{
	Equal:            "=",
	NotEqual:         "!=",
	Matches:          "~",
	DoesntMatch:      "!~",
	EqualICase:       "=~",
	NotEqualICase:    "!=~",
	MatchesICase:     "~~",
	DoesntMatchICase: "!~~",
	Less:             "<",
	GreaterOrEqual:   ">=",
	Greater:          ">",
	LessOrEqual:      "<=",
}

func (op RelationalOperator) String() string {
	if op < 0 || int(op) >= len(operatorNames) {
		return fmt.Sprintf("op(%d)", int(op))
	}
	return operatorNames[op]
}

// ParseRelationalOperator maps the textual form to an operator
func ParseRelationalOperator(s string) (RelationalOperator, error) {
	for op, name := range operatorNames {
		if name == s {
			return RelationalOperator(op), nil
		}
	}
	return 0, fmt.Errorf("invalid relational operator '%s'", s)
}

// Negate returns the operator accepting exactly the rejected values
func (op RelationalOperator) Negate() RelationalOperator {
	switch op {
	case Equal:
		return NotEqual
	case NotEqual:
		return Equal
	case Matches:
		return DoesntMatch
	case DoesntMatch:
		return Matches
	case EqualICase:
		return NotEqualICase
	case NotEqualICase:
		return EqualICase
	case MatchesICase:
		return DoesntMatchICase
	case DoesntMatchICase:
		return MatchesICase
	case Less:
		return GreaterOrEqual
	case GreaterOrEqual:
		return Less
	case Greater:
		return LessOrEqual
	case LessOrEqual:
		return Greater
	}
	return op
}
