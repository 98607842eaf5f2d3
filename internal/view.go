package internal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// BlockKind identifies a display block
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockList
	BlockTable
	BlockDump
	BlockFollowUp
)

// Span is a run of inline text
type Span struct {
	Text string
	Bold bool
}

// Block is one renderer-independent unit of a message view
type Block struct {
	Kind  BlockKind
	Level int      // heading level
	Text  string   // heading, dump and follow-up text
	Spans []Span   // paragraph
	Items [][]Span // list items
	Table *Table
}

// Table is a tabular section with computed totals
type Table struct {
	Headers []string
	Rows    [][]string
	Totals  []string // total row, nil when no column is numeric
	Summary []Figure // frontend/backend/total figures for development estimates
}

// Figure is a labelled computed number
type Figure struct {
	Label string
	Value float64
}

func heading(level int, text string) Block {
	if level > 6 {
		level = 6
	}
	return Block{Kind: BlockHeading, Level: level, Text: text}
}

func paragraph(text string) Block {
	return Block{Kind: BlockParagraph, Spans: ParseInline(text)}
}

var boldSpan = regexp.MustCompile(`(?s)\*\*(.+?)\*\*`)

// ParseInline splits text into literal and **bold** spans
func ParseInline(s string) []Span {
	var spans []Span
	last := 0
	for _, m := range boldSpan.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			spans = append(spans, Span{Text: s[last:m[0]]})
		}
		spans = append(spans, Span{Text: s[m[2]:m[3]], Bold: true})
		last = m[1]
	}
	if last < len(s) || len(spans) == 0 {
		spans = append(spans, Span{Text: s[last:]})
	}
	return spans
}

// SpansText returns the visible text of spans
func SpansText(spans []Span) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Text)
	}
	return b.String()
}

// TitleCase turns a snake_case key into a display title
func TitleCase(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	for i, r := range runes {
		if i == 0 || !isWordRune(runes[i-1]) {
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (v FinalAdjustment) Blocks() []Block {
	blocks := []Block{paragraph(v.Confirmation)}
	if !v.Component.IsObject() {
		return append(blocks, componentBlocks("updated_component", v.Component)...)
	}
	for _, key := range v.Component.Keys() {
		val, _ := v.Component.Get(key)
		blocks = append(blocks, componentBlocks(key, val)...)
	}
	return blocks
}

func componentBlocks(key string, val Value) []Block {
	blocks := []Block{heading(3, TitleCase(key))}
	switch {
	case isTabular(val):
		return append(blocks, Block{Kind: BlockTable, Table: buildTable(val, isDevelopmentEstimate(key))})
	case val.IsString():
		return append(blocks, paragraph(val.Str()))
	default:
		return append(blocks, Block{Kind: BlockDump, Text: val.Pretty()})
	}
}

// scopeSections is the fixed display order of a scope document
var scopeSections = []string{
	"overview",
	"user_roles_and_key_features",
	"feature_breakdown",
	"workflow",
	"milestone_plan",
	"tech_stack",
	"development_estimation",
	"other_estimation",
	"effort_estimation_table",
	"deliverables",
	"out_of_scope",
	"client_responsibilities",
	"technical_requirements",
	"general_notes",
}

func (v ScopeOfWork) Blocks() []Block {
	var blocks []Block
	seen := map[string]bool{"current_stage": true, "follow_up_question": true}
	for _, key := range scopeSections {
		seen[key] = true
		if val, ok := v.Document.Get(key); ok {
			blocks = append(blocks, sectionBlocks(key, val)...)
		}
	}
	for _, key := range v.Document.Keys() {
		if seen[key] {
			continue
		}
		val, _ := v.Document.Get(key)
		blocks = append(blocks, sectionBlocks(key, val)...)
	}
	return blocks
}

func sectionBlocks(key string, val Value) []Block {
	if val.IsNull() || (val.IsString() && strings.TrimSpace(val.Str()) == "") {
		return nil
	}
	blocks := []Block{heading(2, TitleCase(key))}
	switch {
	case isTabular(val):
		return append(blocks, Block{Kind: BlockTable, Table: buildTable(val, isDevelopmentEstimate(key))})
	case key == "tech_stack" && val.IsObject():
		return append(blocks, TechStack{Categories: val}.Blocks()...)
	default:
		return append(blocks, valueBlocks(val, 3)...)
	}
}

// valueBlocks renders a section body
func valueBlocks(val Value, level int) []Block {
	switch val.Kind() {
	case KindArray:
		return []Block{listBlock(val)}
	case KindObject:
		var blocks []Block
		for _, key := range val.Keys() {
			child, _ := val.Get(key)
			if isTabular(child) {
				blocks = append(blocks, heading(level, TitleCase(key)),
					Block{Kind: BlockTable, Table: buildTable(child, false)})
				continue
			}
			blocks = append(blocks, heading(level, TitleCase(key)))
			blocks = append(blocks, valueBlocks(child, level+1)...)
		}
		return blocks
	default:
		return []Block{paragraph(val.Text())}
	}
}

func listBlock(arr Value) Block {
	items := make([][]Span, 0, arr.Len())
	for _, item := range arr.Items() {
		items = append(items, itemSpans(item))
	}
	return Block{Kind: BlockList, Items: items}
}

// itemSpans flattens a list item; objects become "Key: value" pairs
func itemSpans(item Value) []Span {
	if !item.IsObject() {
		return ParseInline(item.Text())
	}
	var spans []Span
	for i, key := range item.Keys() {
		val, _ := item.Get(key)
		if i > 0 {
			spans = append(spans, Span{Text: "; "})
		}
		spans = append(spans, Span{Text: TitleCase(key) + ":", Bold: true})
		spans = append(spans, Span{Text: " " + joinedText(val)})
	}
	return spans
}

func joinedText(v Value) string {
	if !v.IsArray() {
		return v.Text()
	}
	parts := make([]string, 0, v.Len())
	for _, item := range v.Items() {
		parts = append(parts, item.Text())
	}
	return strings.Join(parts, ", ")
}

func (v TechStack) Blocks() []Block {
	items := make([][]Span, 0, v.Categories.Len())
	for _, key := range v.Categories.Keys() {
		val, _ := v.Categories.Get(key)
		items = append(items, []Span{
			{Text: TitleCase(key) + ":", Bold: true},
			{Text: " " + joinedText(val)},
		})
	}
	return []Block{{Kind: BlockList, Items: items}}
}

func (v FeatureList) Blocks() []Block {
	items := make([][]Span, 0, len(v.Features))
	for _, feature := range v.Features {
		items = append(items, itemSpans(feature))
	}
	return []Block{{Kind: BlockList, Items: items}}
}

func (v Summary) Blocks() []Block {
	return []Block{paragraph(v.Text)}
}

func (v Opaque) Blocks() []Block {
	return []Block{{Kind: BlockDump, Text: v.Content.Pretty()}}
}

func (v Text) Blocks() []Block {
	return []Block{paragraph(v.Text)}
}

// ExpandProse renders a structured value as headings, lists and text,
// each key becoming a heading one level below its parent.
func ExpandProse(val Value, level int) []Block {
	switch val.Kind() {
	case KindObject:
		var blocks []Block
		for _, key := range val.Keys() {
			child, _ := val.Get(key)
			blocks = append(blocks, heading(level, TitleCase(key)))
			if child.IsObject() || child.IsArray() {
				blocks = append(blocks, ExpandProse(child, level+1)...)
			} else {
				blocks = append(blocks, paragraph(proseText(child)))
			}
		}
		return blocks
	case KindArray:
		var blocks []Block
		var items [][]Span
		for _, item := range val.Items() {
			if item.IsObject() || item.IsArray() {
				if len(items) > 0 {
					blocks = append(blocks, Block{Kind: BlockList, Items: items})
					items = nil
				}
				blocks = append(blocks, ExpandProse(item, level+1)...)
				continue
			}
			items = append(items, ParseInline(proseText(item)))
		}
		if len(items) > 0 {
			blocks = append(blocks, Block{Kind: BlockList, Items: items})
		}
		return blocks
	default:
		return []Block{paragraph(proseText(val))}
	}
}

func proseText(v Value) string {
	if v.IsNull() {
		return "-"
	}
	return v.Text()
}

// ViewOptions controls how a message is turned into blocks
type ViewOptions struct {
	// Prose expands unrecognized structures into headings instead of a dump
	Prose bool
}

// MessageBlocks builds the display blocks of a stored message
func MessageBlocks(msg Message, opts ViewOptions) []Block {
	if msg.Sender != SenderAssistant {
		return []Block{{Kind: BlockParagraph, Spans: []Span{{Text: msg.Content}}}}
	}
	payload := NormalizeStored(msg.Content)
	return viewBlocks(ClassifyMessage(msg, payload.Content), payload, opts)
}

// PayloadBlocks classifies a payload and builds its display blocks,
// ending with the follow-up question when there is one.
func PayloadBlocks(payload NormalizedPayload, opts ViewOptions) []Block {
	return viewBlocks(Classify(payload.Content), payload, opts)
}

func viewBlocks(vm ViewModel, payload NormalizedPayload, opts ViewOptions) []Block {
	var blocks []Block
	if opaque, ok := vm.(Opaque); ok && opts.Prose {
		blocks = ExpandProse(opaque.Content, 2)
	} else {
		blocks = vm.Blocks()
	}
	if strings.TrimSpace(payload.FollowUpQuestion) != "" {
		blocks = append(blocks, Block{Kind: BlockFollowUp, Text: payload.FollowUpQuestion})
	}
	return blocks
}

func isTabular(v Value) bool {
	headers, ok := v.Get("headers")
	if !ok || !headers.IsArray() {
		return false
	}
	rows, ok := v.Get("rows")
	if !ok || !rows.IsArray() {
		return false
	}
	for _, row := range rows.Items() {
		if !row.IsArray() {
			return false
		}
	}
	return true
}

func isDevelopmentEstimate(key string) bool {
	return key == "development_estimation"
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// cellNumber reads the first number in a cell, ignoring markup, thousands
// separators and unit suffixes. A minus sign only counts at the start of a
// word, so "Sprint-2" reads as 2.
func cellNumber(cell string) (float64, bool) {
	cleaned := strings.ReplaceAll(cell, ",", "")
	loc := numberPattern.FindStringIndex(cleaned)
	if loc == nil {
		return 0, false
	}
	m := cleaned[loc[0]:loc[1]]
	if strings.HasPrefix(m, "-") && loc[0] > 0 && !strings.ContainsRune(" \t\n*(", rune(cleaned[loc[0]-1])) {
		m = m[1:]
	}
	f, err := strconv.ParseFloat(m, 64)
	return f, err == nil
}

func isTotalRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(row[0], "**", "")))
	return first == "total" || strings.HasPrefix(first, "total ")
}

func buildTable(v Value, devEstimate bool) *Table {
	headersVal, _ := v.Get("headers")
	rowsVal, _ := v.Get("rows")

	t := &Table{}
	for _, h := range headersVal.Items() {
		t.Headers = append(t.Headers, h.Text())
	}
	width := len(t.Headers)
	for _, rowVal := range rowsVal.Items() {
		row := make([]string, 0, rowVal.Len())
		for _, cell := range rowVal.Items() {
			row = append(row, cell.Text())
		}
		if len(row) > width {
			width = len(row)
		}
		t.Rows = append(t.Rows, row)
	}

	sums := make([]float64, width)
	numeric := make([]bool, width)
	for _, row := range t.Rows {
		if isTotalRow(row) {
			continue
		}
		for i := 1; i < len(row); i++ {
			if f, ok := cellNumber(row[i]); ok {
				sums[i] += f
				numeric[i] = true
			}
		}
	}

	var grand float64
	anyNumeric := false
	totals := make([]string, width)
	if width > 0 {
		totals[0] = "Total"
	}
	for i := 1; i < width; i++ {
		if numeric[i] {
			totals[i] = FormatNumber(sums[i])
			grand += sums[i]
			anyNumeric = true
		}
	}
	if anyNumeric {
		t.Totals = totals
	}

	if devEstimate && anyNumeric {
		fe, feOK := columnSum(t.Headers, sums, "frontend")
		be, beOK := columnSum(t.Headers, sums, "backend")
		if feOK || beOK {
			t.Summary = []Figure{
				{Label: "Frontend", Value: fe},
				{Label: "Backend", Value: be},
				{Label: "Total", Value: fe + be},
			}
		} else {
			t.Summary = []Figure{{Label: "Total", Value: grand}}
		}
	}
	return t
}

func columnSum(headers []string, sums []float64, name string) (float64, bool) {
	for i, h := range headers {
		if i > 0 && i < len(sums) && strings.Contains(strings.ToLower(h), name) {
			return sums[i], true
		}
	}
	return 0, false
}

// FormatNumber prints whole numbers without decimals and others with at most two
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
