package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/leengari/statusd/internal/domain/query"
)

// Query is a parsed Livestatus-style GET request
type Query struct {
	Table          string
	Columns        []string
	Filters        []query.Condition
	Stats          []query.Stat
	AuthUser       string
	TimezoneOffset time.Duration
}

// headers that are accepted and have no effect on the result
var ignoredHeaders = map[string]bool{
	"ColumnHeaders":  true,
	"KeepAlive":      true,
	"OutputFormat":   true,
	"ResponseHeader": true,
}

var aggregations = map[string]bool{
	"sum": true, "min": true, "max": true, "avg": true,
	"std": true, "suminv": true, "avginv": true,
}

type Parser struct {
	lines   []string
	curPos  int
	curLine string
	now     time.Time
}

// New creates a parser for request text; now is used for Localtime
func New(text string, now time.Time) *Parser {
	p := &Parser{lines: strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), now: now}
	p.nextLine()
	return p
}

// nextLine advances and reports whether a non-empty line is current.
// An empty line ends the request.
func (p *Parser) nextLine() bool {
	if p.curPos >= len(p.lines) {
		p.curLine = ""
		return false
	}
	p.curLine = p.lines[p.curPos]
	p.curPos++
	return p.curLine != ""
}

// Parse reads the request line and all headers
func (p *Parser) Parse() (*Query, error) {
	table, ok := strings.CutPrefix(p.curLine, "GET ")
	if !ok || strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("invalid request method, expected 'GET <table>', got '%s'", p.curLine)
	}
	q := &Query{Table: strings.TrimSpace(table)}

	for p.nextLine() {
		name, value, ok := strings.Cut(p.curLine, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header line '%s'", p.curLine)
		}
		value = strings.TrimSpace(value)
		if err := p.parseHeader(q, name, value); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (p *Parser) parseHeader(q *Query, name, value string) error {
	switch name {
	case "Columns":
		q.Columns = append(q.Columns, strings.Fields(value)...)
	case "Filter":
		cond, err := parseCondition(value)
		if err != nil {
			return fmt.Errorf("invalid Filter header: %w", err)
		}
		q.Filters = append(q.Filters, cond)
	case "Stats":
		stat, err := parseStat(value)
		if err != nil {
			return fmt.Errorf("invalid Stats header: %w", err)
		}
		q.Stats = append(q.Stats, stat)
	case "AuthUser":
		q.AuthUser = value
	case "Localtime":
		offset, err := p.parseLocaltime(value)
		if err != nil {
			return err
		}
		q.TimezoneOffset = offset
	default:
		if !ignoredHeaders[name] {
			return fmt.Errorf("undefined request header '%s'", name)
		}
	}
	return nil
}

// parseCondition splits "column op value"; value may contain spaces or be empty
func parseCondition(s string) (query.Condition, error) {
	fields := strings.SplitN(s, " ", 3)
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return query.Condition{}, fmt.Errorf("expected 'column operator value', got '%s'", s)
	}
	cond := query.Condition{Column: fields[0], Operator: fields[1]}
	if len(fields) == 3 {
		cond.Value = fields[2]
	}
	return cond, nil
}

func parseStat(s string) (query.Stat, error) {
	fields := strings.Fields(s)
	if len(fields) == 2 && aggregations[fields[0]] {
		return query.Stat{Condition: query.Condition{Column: fields[1]}, Aggregate: fields[0]}, nil
	}
	cond, err := parseCondition(s)
	if err != nil {
		return query.Stat{}, err
	}
	return query.Stat{Condition: cond}, nil
}

const maxClockSkew = 24 * 60 * 60

// parseLocaltime turns the client's clock into an offset rounded to half hours
func (p *Parser) parseLocaltime(value string) (time.Duration, error) {
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid Localtime header '%s': %w", value, err)
	}
	now := p.now.Unix()
	if secs <= now-maxClockSkew || secs >= now+maxClockSkew {
		return 0, fmt.Errorf("invalid Localtime header '%s': timezone difference greater than or equal to 24 hours", value)
	}
	halfHours := math.Round(float64(secs-now) / 1800)
	return time.Duration(halfHours*1800) * time.Second, nil
}
