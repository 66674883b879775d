// Package raw mirrors the Wolfram|Alpha full-results JSON document field for field.
//
// The structures here accept every shape upstream has been observed to emit and nothing
// else: unknown keys, missing required keys and unexpected JSON kinds are all reported as
// *SchemaViolation. Shape-polymorphic fields are modelled with the union types in
// wrappers.go and resolved by the normalization layer in package wolfram.
package raw

// APIResponse is the document root.
type APIResponse struct {
	QueryResult QueryResult `json:"queryresult"`
}

type QueryResult struct {
	Success       bool    `json:"success"`
	NumPods       int     `json:"numpods"`
	DataTypes     string  `json:"datatypes"`
	TimedOut      string  `json:"timedout"`
	TimedOutPods  string  `json:"timedoutpods"`
	Timing        float64 `json:"timing"`
	ParseTiming   float64 `json:"parsetiming"`
	ParseTimedOut bool    `json:"parsetimedout"`
	Recalculate   string  `json:"recalculate"`
	ID            string  `json:"id"`
	ParseIDServer *string `json:"parseidserver"`
	Host          string  `json:"host"`
	Server        string  `json:"server"`
	Related       string  `json:"related"`
	Version       string  `json:"version"`
	InputString   string  `json:"inputstring"`

	Pods        *[]Pod                 `json:"pods"`
	Sources     *OneOrMany[Source]     `json:"sources"`
	Assumptions *OneOrMany[Assumption] `json:"assumptions"`
	Error       ErrorField             `json:"error"`
}

type Pod struct {
	Title           string                    `json:"title"`
	Scanner         string                    `json:"scanner"`
	ID              string                    `json:"id"`
	Position        int                       `json:"position"`
	Error           bool                      `json:"error"`
	NumSubpods      int                       `json:"numsubpods"`
	Subpods         []SubPod                  `json:"subpods"`
	ExpressionTypes OneOrMany[ExpressionType] `json:"expressiontypes"`
	States          *OneOrMany[StateEntry]    `json:"states"`
	Infos           *OneOrMany[Info]          `json:"infos"`
	Primary         *bool                     `json:"primary"`
	Definitions     *OneOrMany[Definition]    `json:"definitions"`
}

type SubPod struct {
	Title        string           `json:"title"`
	Primary      *bool            `json:"primary"`
	ImageSource  *string          `json:"imagesource"`
	MicroSources *MicroSources    `json:"microsources"`
	DataSources  *DataSources     `json:"datasources"`
	Img          Image            `json:"img"`
	PlainText    string           `json:"plaintext"`
	Infos        *OneOrMany[Info] `json:"infos"`
}

type MicroSources struct {
	MicroSource OneOrMany[string] `json:"microsource"`
}

type DataSources struct {
	DataSource OneOrMany[string] `json:"datasource"`
}

type Image struct {
	Src             string      `json:"src"`
	Alt             string      `json:"alt"`
	Title           string      `json:"title"`
	Width           IntOrString `json:"width"`
	Height          IntOrString `json:"height"`
	Type            *string     `json:"type"`
	Themes          *string     `json:"themes"`
	ColorInvertable *bool       `json:"colorinvertable"`
	ContentType     *string     `json:"contenttype"`
}

type ExpressionType struct {
	Name string `json:"name"`
}

// State is a single selectable state, e.g. "Show non-metric".
type State struct {
	Name       string `json:"name"`
	Input      string `json:"input"`
	StepByStep *bool  `json:"stepbystep"`
}

// MultiState is a group of mutually exclusive states. Its members are always plain states;
// a nested group fails to decode.
type MultiState struct {
	Count      int     `json:"count"`
	Value      string  `json:"value"`
	Delimiters string  `json:"delimiters"`
	States     []State `json:"states"`
}

type Info struct {
	Units *[]UnitsEntry    `json:"units"`
	Text  *string          `json:"text"`
	Img   *Image           `json:"img"`
	Links *OneOrMany[Link] `json:"links"`
}

type MeasurementUnit struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

// UnitSource is the legend image for an info's units. Upstream types its dimensions as strings.
type UnitSource struct {
	Src    string `json:"src"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

type Link struct {
	URL   string  `json:"url"`
	Text  string  `json:"text"`
	Title *string `json:"title"`
}

type Definition struct {
	Word string `json:"word"`
	Desc string `json:"desc"`
}

type Assumption struct {
	Type     string                     `json:"type"`
	Word     *string                    `json:"word"`
	Desc     *string                    `json:"desc"`
	Current  *string                    `json:"current"`
	Template *string                    `json:"template"`
	Count    int                        `json:"count"`
	Values   OneOrMany[AssumptionValue] `json:"values"`
}

type AssumptionValue struct {
	Name  string      `json:"name"`
	Desc  string      `json:"desc"`
	Valid *BoolOrText `json:"valid"`
	Input string      `json:"input"`
}

type Source struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Parse strictly decodes a full-results document.
func Parse(data []byte) (*APIResponse, error) {
	var doc APIResponse
	if err := Decode(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
