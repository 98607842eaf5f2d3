package internal

// Shape is the structural classification of a content value
type Shape string

const (
	ShapeFinalAdjustment Shape = "final_adjustment"
	ShapeScopeOfWork     Shape = "scope_of_work"
	ShapeTechStack       Shape = "tech_stack"
	ShapeFeatureList     Shape = "feature_list"
	ShapeSummary         Shape = "summary"
	ShapeOpaque          Shape = "opaque"
	ShapeText            Shape = "text"
)

// ViewModel is classified content ready to be turned into display blocks
type ViewModel interface {
	Shape() Shape
	Blocks() []Block
}

// FinalAdjustment confirms a change and carries the updated component
type FinalAdjustment struct {
	Confirmation string
	Component    Value
}

// ScopeOfWork is a full multi-section scope document
type ScopeOfWork struct {
	Document Value
}

// TechStack maps categories to technology lists
type TechStack struct {
	Categories Value
}

// FeatureList is a flat list of features
type FeatureList struct {
	Features []Value
}

// Summary is a single prose paragraph
type Summary struct {
	Text string
}

// Opaque is structured content with no known shape
type Opaque struct {
	Content Value
}

// Text is plain string or primitive content
type Text struct {
	Text string
}

func (FinalAdjustment) Shape() Shape { return ShapeFinalAdjustment }
func (ScopeOfWork) Shape() Shape     { return ShapeScopeOfWork }
func (TechStack) Shape() Shape       { return ShapeTechStack }
func (FeatureList) Shape() Shape     { return ShapeFeatureList }
func (Summary) Shape() Shape         { return ShapeSummary }
func (Opaque) Shape() Shape          { return ShapeOpaque }
func (Text) Shape() Shape            { return ShapeText }

// scopeMarkers are the keys that, next to overview, mark a scope document
var scopeMarkers = []string{"feature_breakdown", "development_estimation", "effort_estimation_table"}

// Classify assigns content to a shape. Rules are checked in a fixed order
// and the first match wins; the order decides payloads that fit several.
func Classify(content Value) ViewModel {
	switch content.Kind() {
	case KindObject:
		return classifyObject(content)
	case KindArray:
		return Opaque{Content: content}
	default:
		return Text{Text: content.Text()}
	}
}

func classifyObject(obj Value) ViewModel {
	if obj.Has("confirmation_message") && obj.Has("updated_component") {
		confirmation, _ := obj.Get("confirmation_message")
		component, _ := obj.Get("updated_component")
		return FinalAdjustment{Confirmation: confirmation.Text(), Component: component}
	}

	if obj.Has("overview") {
		for _, key := range scopeMarkers {
			if obj.Has(key) {
				return ScopeOfWork{Document: obj}
			}
		}
	}

	if obj.Has("frontend") && obj.Has("backend") {
		return TechStack{Categories: obj}
	}

	if features, ok := obj.Get("features"); ok && features.IsArray() {
		return FeatureList{Features: features.Items()}
	}

	for _, key := range []string{"summary", "overview"} {
		if v, ok := obj.Get(key); ok && v.IsString() {
			return Summary{Text: v.Str()}
		}
	}

	return Opaque{Content: obj}
}

// ClassifyAs builds the view model of content for a known shape. It
// reports false when content lacks what that shape is built from.
func ClassifyAs(shape Shape, content Value) (ViewModel, bool) {
	switch shape {
	case ShapeText:
		if content.IsObject() || content.IsArray() {
			return nil, false
		}
		return Text{Text: content.Text()}, true
	case ShapeOpaque:
		if !content.IsObject() && !content.IsArray() {
			return nil, false
		}
		return Opaque{Content: content}, true
	}
	if !content.IsObject() {
		return nil, false
	}

	switch shape {
	case ShapeFinalAdjustment:
		confirmation, okConfirm := content.Get("confirmation_message")
		component, okComponent := content.Get("updated_component")
		if okConfirm && okComponent {
			return FinalAdjustment{Confirmation: confirmation.Text(), Component: component}, true
		}
	case ShapeScopeOfWork:
		if content.Has("overview") {
			for _, key := range scopeMarkers {
				if content.Has(key) {
					return ScopeOfWork{Document: content}, true
				}
			}
		}
	case ShapeTechStack:
		if content.Has("frontend") && content.Has("backend") {
			return TechStack{Categories: content}, true
		}
	case ShapeFeatureList:
		if features, ok := content.Get("features"); ok && features.IsArray() {
			return FeatureList{Features: features.Items()}, true
		}
	case ShapeSummary:
		for _, key := range []string{"summary", "overview"} {
			if v, ok := content.Get(key); ok && v.IsString() {
				return Summary{Text: v.Str()}, true
			}
		}
	}
	return nil, false
}

// ClassifyMessage returns the view model of an assistant message's content.
// The recorded shape is used when the content still fits it; a missing or
// stale tag falls back to Classify.
func ClassifyMessage(msg Message, content Value) ViewModel {
	if msg.Shape != "" {
		if vm, ok := ClassifyAs(msg.Shape, content); ok {
			return vm
		}
		LogDebug("Message %s: recorded shape %s does not fit its content", msg.ID, msg.Shape)
	}
	return Classify(content)
}

// MessageShape returns the shape of a message. Assistant messages use
// their recorded shape after checking it against the stored payload.
func MessageShape(msg Message) Shape {
	if msg.Sender != SenderAssistant {
		return ShapeText
	}
	return ClassifyMessage(msg, NormalizeStored(msg.Content).Content).Shape()
}
