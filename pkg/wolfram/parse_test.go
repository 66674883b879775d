package wolfram

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return data
}

// queryResultJSON builds a minimal successful document with extra queryresult fields appended.
func queryResultJSON(fields ...string) string {
	parts := append([]string{
		`"success":true`, `"numpods":1`, `"datatypes":""`, `"timedout":""`, `"timedoutpods":""`,
		`"timing":0.5`, `"parsetiming":0.1`, `"parsetimedout":false`, `"recalculate":""`,
		`"id":"MSP1"`, `"host":"https://www6b3.wolframalpha.com"`, `"server":"5"`, `"related":""`,
		`"version":"2.6"`, `"inputstring":"q"`, `"error":false`,
	}, fields...)
	return `{"queryresult":{` + strings.Join(parts, ",") + `}}`
}

func podJSON(width, height string, fields ...string) string {
	parts := append([]string{
		`"title":"Result"`, `"scanner":"Data"`, `"id":"Result"`, `"position":200`, `"error":false`,
		`"numsubpods":1`, `"expressiontypes":{"name":"Default"}`,
		fmt.Sprintf(`"subpods":[{"title":"","img":{"src":"https://example.com/a.gif","alt":"a","title":"a","width":%s,"height":%s},"plaintext":"42"}]`, width, height),
	}, fields...)
	return `{` + strings.Join(parts, ",") + `}`
}

func mustParse(t *testing.T, doc string) *QueryResult {
	t.Helper()
	result, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return result
}

func TestParseFailedCredentialLookup(t *testing.T) {
	result, err := Parse(readFixture(t, "invalid_appid.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected success=false")
	}
	if result.Pods == nil || len(result.Pods) != 0 {
		t.Fatalf("expected empty non-nil pods, got %#v", result.Pods)
	}
	if diff := cmp.Diff(&UpstreamError{Code: "1", Message: "Invalid appid"}, result.Error); diff != "" {
		t.Fatalf("unexpected upstream error (-want +got):\n%s", diff)
	}
	if !IsUpstreamError(result.Err()) {
		t.Fatalf("expected Err() to be an upstream error, got %v", result.Err())
	}
	if result.InputString != "population france" || result.Timing != 0.019 || result.Version != "2.6" {
		t.Fatalf("unexpected header fields: %+v", result)
	}
	if result.Sources == nil || result.Assumptions == nil {
		t.Fatalf("expected empty non-nil sources and assumptions")
	}
}

func TestParseNoErrorVariant(t *testing.T) {
	result := mustParse(t, queryResultJSON())
	if result.Error != nil || result.Err() != nil {
		t.Fatalf("expected no upstream error, got %+v", result.Error)
	}
}

func TestParseMultiPodAnswer(t *testing.T) {
	result, err := Parse(readFixture(t, "population_france.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Pods) != 6 || result.NumPods != 6 {
		t.Fatalf("expected 6 pods, got %d (numpods=%d)", len(result.Pods), result.NumPods)
	}

	primaries := 0
	for _, pod := range result.Pods {
		if pod.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary pod, got %d", primaries)
	}
	primary, ok := result.PrimaryPod()
	if !ok || primary.ID != "Result" {
		t.Fatalf("unexpected primary pod %q (found=%v)", primary.ID, ok)
	}
	wantStates := []StateNode{StateLeaf{Name: "Show history", InputToken: "Result__Show history"}}
	if diff := cmp.Diff(wantStates, primary.States); diff != "" {
		t.Fatalf("unexpected states for single-object pod (-want +got):\n%s", diff)
	}

	sub := primary.Subpods[0]
	if !sub.IsPrimary || sub.Image.Width != 396 || sub.Image.Height != 19 {
		t.Fatalf("unexpected primary subpod %+v", sub)
	}
	if diff := cmp.Diff([]string{"CountryData"}, sub.MicroSources); diff != "" {
		t.Fatalf("unexpected microsources (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"UNPopulationData", "CIAFactbook"}, sub.DataSources); diff != "" {
		t.Fatalf("unexpected datasources (-want +got):\n%s", diff)
	}
	if sub.ImageSourceURL != nil {
		t.Fatalf("expected no image source, got %q", *sub.ImageSourceURL)
	}

	input, _ := result.PodByID("Input")
	if img := input.Subpods[0].Image; img.Kind == nil || *img.Kind != "Grid" || !img.ColorInvertible {
		t.Fatalf("unexpected input image %+v", img)
	}
	if input.IsPrimary || input.States == nil || len(input.States) != 0 || input.Infos == nil || input.Definitions == nil {
		t.Fatalf("expected absent collections to be empty, got %+v", input)
	}
	if diff := cmp.Diff([]ExpressionType{{Name: "Grid"}}, input.ExpressionTypes); diff != "" {
		t.Fatalf("unexpected expression types (-want +got):\n%s", diff)
	}
}

func TestParseStateGroupsAndUnits(t *testing.T) {
	result, err := Parse(readFixture(t, "population_france.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pod, ok := result.PodByID("RecentHistory:Population:CountryData")
	if !ok {
		t.Fatalf("history pod missing")
	}
	children := make([]StateLeaf, 0, 5)
	for _, label := range []string{"All data", "Last 10 years", "Last 20 years", "Last 30 years", "Last 50 years"} {
		children = append(children, StateLeaf{Name: label, InputToken: "RecentHistory:Population:CountryData__" + label})
	}
	wantStates := []StateNode{
		StateGroup{OptionCount: 5, DefaultValueLabel: "Last 50 years", Children: children},
		StateLeaf{Name: "Use Metric", InputToken: "RecentHistory:Population:CountryData__Use Metric"},
	}
	if diff := cmp.Diff(wantStates, pod.States); diff != "" {
		t.Fatalf("unexpected states (-want +got):\n%s", diff)
	}

	wantInfos := []Info{{
		MeasurementUnits: []MeasurementUnit{
			{ShortLabel: "people/km^2", LongLabel: "people per square kilometer"},
			{ShortLabel: "mi^2", LongLabel: "square miles"},
		},
		UnitIcon: &UnitIconSource{
			IconURL: "https://www6b3.wolframalpha.com/Calculate/MSP/MSP4.gif",
			Width:   "178",
			Height:  "48",
		},
		Links: []Link{},
	}}
	if diff := cmp.Diff(wantInfos, pod.Infos); diff != "" {
		t.Fatalf("unexpected infos (-want +got):\n%s", diff)
	}
}

func TestParseInfosLinksAndDefinitions(t *testing.T) {
	result, err := Parse(readFixture(t, "population_france.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pod, _ := result.PodByID("LongTermHistory:Population:CountryData")
	if len(pod.Infos) != 2 {
		t.Fatalf("expected 2 infos, got %d", len(pod.Infos))
	}
	text := pod.Infos[0]
	if text.DescriptiveText == nil || *text.DescriptiveText != "(data not available for some years)" {
		t.Fatalf("unexpected info text %v", text.DescriptiveText)
	}
	if len(text.Links) != 1 || text.Links[0].Title == nil || *text.Links[0].Title != "Population history" {
		t.Fatalf("unexpected single link %+v", text.Links)
	}
	legend := pod.Infos[1]
	if legend.Image == nil || legend.Image.Width != 62 || legend.Image.Height != 12 {
		t.Fatalf("unexpected info image %+v", legend.Image)
	}
	if len(legend.Links) != 2 || legend.Links[1].DisplayText != "Source B" || legend.Links[1].Title != nil {
		t.Fatalf("unexpected links %+v", legend.Links)
	}
	if diff := cmp.Diff([]Definition{{Term: "population", Description: "the number of people living in a region"}}, pod.Definitions); diff != "" {
		t.Fatalf("unexpected definitions (-want +got):\n%s", diff)
	}

	demographics, _ := result.PodByID("DemographicProperties:CountryData")
	if len(demographics.Definitions) != 2 || len(demographics.ExpressionTypes) != 2 {
		t.Fatalf("unexpected demographics pod %+v", demographics)
	}
	if got := demographics.PlainText(); got != "82.3 years\n41.7 years" {
		t.Fatalf("unexpected plaintext %q", got)
	}
}

func TestParseAssumptionsAndSources(t *testing.T) {
	result, err := Parse(readFixture(t, "population_france.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assumptions) != 1 {
		t.Fatalf("expected one assumption, got %d", len(result.Assumptions))
	}
	a := result.Assumptions[0]
	if a.Kind != "Clash" || a.OptionCount != 2 || a.Word == nil || *a.Word != "france" || a.Description != nil {
		t.Fatalf("unexpected assumption %+v", a)
	}
	if a.Options[0].IsValid != nil {
		t.Fatalf("expected no validity flag, got %+v", a.Options[0].IsValid)
	}
	if diff := cmp.Diff(&BoolOrText{Text: "maybe", IsText: true}, a.Options[1].IsValid); diff != "" {
		t.Fatalf("unexpected validity token (-want +got):\n%s", diff)
	}
	want := []Source{{URL: "https://www.wolframalpha.com/sources/CountryDataSourceInformationNotes.html", DisplayText: "Country data"}}
	if diff := cmp.Diff(want, result.Sources); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}
}

func TestPodsByPosition(t *testing.T) {
	result, err := Parse(readFixture(t, "population_france.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var positions []int
	for _, pod := range result.PodsByPosition() {
		positions = append(positions, pod.Position)
	}
	if diff := cmp.Diff([]int{100, 200, 300, 400, 450, 500}, positions); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if result.Pods[5].Position != 450 {
		t.Fatalf("PodsByPosition reordered the result in place")
	}
}

func TestParseRejectsUnknownTopLevelField(t *testing.T) {
	result, err := Parse([]byte(queryResultJSON(`"unexpected":1`)))
	if result != nil {
		t.Fatalf("expected no partial result")
	}
	if !IsSchemaViolation(err) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	var sv *SchemaViolation
	if !errors.As(err, &sv) || sv.Path != "queryresult.unexpected" {
		t.Fatalf("unexpected violation %v", err)
	}
}

func TestParseIntegerCoercionAgreement(t *testing.T) {
	for _, n := range []int{0, 1, 19, 396, 4096, -3} {
		asNumber := mustParse(t, queryResultJSON(`"pods":[`+podJSON(fmt.Sprint(n), "1")+`]`))
		asString := mustParse(t, queryResultJSON(`"pods":[`+podJSON(fmt.Sprintf("%q", fmt.Sprint(n)), `"1"`)+`]`))
		if diff := cmp.Diff(asNumber.Pods, asString.Pods); diff != "" {
			t.Fatalf("width %d differs between number and string form (-number +string):\n%s", n, diff)
		}
		if asString.Pods[0].Subpods[0].Image.Width != n {
			t.Fatalf("expected width %d, got %d", n, asString.Pods[0].Subpods[0].Image.Width)
		}
	}
}

func TestParseRejectsNonNumericDimension(t *testing.T) {
	_, err := Parse([]byte(queryResultJSON(`"pods":[` + podJSON(`"wide"`, "1") + `]`)))
	var sv *SchemaViolation
	if !errors.As(err, &sv) {
		t.Fatalf("expected schema violation, got %v", err)
	}
	if sv.Path != "queryresult.pods[0].subpods[0].img.width" {
		t.Fatalf("unexpected path %q", sv.Path)
	}
}

func TestParseCollapseIdempotence(t *testing.T) {
	cases := []struct {
		name           string
		single, series string
	}{
		{"states", `"states":{"name":"More","input":"Result__More"}`, `"states":[{"name":"More","input":"Result__More"}]`},
		{"infos", `"infos":{"text":"note"}`, `"infos":[{"text":"note"}]`},
		{"definitions", `"definitions":{"word":"w","desc":"d"}`, `"definitions":[{"word":"w","desc":"d"}]`},
		{"expressiontypes", `"expressiontypes":{"name":"Default"}`, `"expressiontypes":[{"name":"Default"}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := mustParse(t, queryResultJSON(`"pods":[`+podWith(tc.single)+`]`))
			b := mustParse(t, queryResultJSON(`"pods":[`+podWith(tc.series)+`]`))
			if diff := cmp.Diff(a.Pods, b.Pods); diff != "" {
				t.Fatalf("single and one-element forms differ (-single +array):\n%s", diff)
			}
		})
	}

	a := mustParse(t, queryResultJSON(`"sources":{"url":"u","text":"t"}`, `"assumptions":{"type":"Clash","count":1,"values":{"name":"n","desc":"d","input":"i"}}`))
	b := mustParse(t, queryResultJSON(`"sources":[{"url":"u","text":"t"}]`, `"assumptions":[{"type":"Clash","count":1,"values":[{"name":"n","desc":"d","input":"i"}]}]`))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("single and one-element forms differ (-single +array):\n%s", diff)
	}
}

// podWith adds field to a minimal pod, replacing the default expression types if it sets them.
func podWith(field string) string {
	if strings.HasPrefix(field, `"expressiontypes"`) {
		return strings.Replace(podJSON("1", "1"), `"expressiontypes":{"name":"Default"}`, field, 1)
	}
	return podJSON("1", "1", field)
}

func TestParseValidityFlags(t *testing.T) {
	cases := []struct {
		valid string
		want  *BoolOrText
	}{
		{`true`, &BoolOrText{Bool: true}},
		{`false`, &BoolOrText{Bool: false}},
		{`"True "`, &BoolOrText{Text: "True ", IsText: true}},
		{`"false"`, &BoolOrText{Text: "false", IsText: true}},
		{`"maybe"`, &BoolOrText{Text: "maybe", IsText: true}},
	}
	for _, tc := range cases {
		doc := queryResultJSON(`"assumptions":{"type":"Clash","count":1,"values":{"name":"n","desc":"d","valid":` + tc.valid + `,"input":"i"}}`)
		result := mustParse(t, doc)
		if diff := cmp.Diff(tc.want, result.Assumptions[0].Options[0].IsValid); diff != "" {
			t.Fatalf("valid=%s (-want +got):\n%s", tc.valid, diff)
		}
	}
}

func TestParseRejectsNestedStateGroup(t *testing.T) {
	group := `"states":[{"count":1,"value":"x","delimiters":"","states":[{"count":1,"value":"y","delimiters":"","states":[]}]}]`
	_, err := Parse([]byte(queryResultJSON(`"pods":[` + podJSON("1", "1", group) + `]`)))
	if !IsSchemaViolation(err) {
		t.Fatalf("expected schema violation for nested state group, got %v", err)
	}
}

func TestParseReader(t *testing.T) {
	result, err := ParseReader(strings.NewReader(queryResultJSON()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.ID != "MSP1" {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := ParseReader(strings.NewReader(`{"queryresult":`)); !IsSchemaViolation(err) {
		t.Fatalf("expected schema violation for truncated document, got %v", err)
	}
}

func TestParseConcurrent(t *testing.T) {
	data := readFixture(t, "population_france.json")
	want, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var wg sync.WaitGroup
	results := make([]*QueryResult, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = Parse(data)
		}()
	}
	wg.Wait()
	for i, got := range results {
		if errs[i] != nil {
			t.Fatalf("parse %d failed: %v", i, errs[i])
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("parse %d differs (-want +got):\n%s", i, diff)
		}
	}
}

func TestBoolOrTextTruthy(t *testing.T) {
	cases := []struct {
		flag *BoolOrText
		want bool
	}{
		{nil, false},
		{&BoolOrText{Bool: true}, true},
		{&BoolOrText{}, false},
		{&BoolOrText{Text: "True ", IsText: true}, true},
		{&BoolOrText{Text: "false", IsText: true}, false},
		{&BoolOrText{Text: "maybe", IsText: true}, false},
	}
	for _, tc := range cases {
		if got := tc.flag.Truthy(); got != tc.want {
			t.Errorf("Truthy(%+v) = %v, want %v", tc.flag, got, tc.want)
		}
	}
}

func TestParseUnitIconLastWins(t *testing.T) {
	icon := func(name string) string {
		return `{"src":"https://example.com/` + name + `.gif","width":"10","height":"20"}`
	}
	unit := `{"short":"m","long":"meters"}`
	cases := []struct {
		name  string
		units string
		icon  string
		count int
	}{
		{"icon around unit", icon("a") + "," + unit + "," + icon("b"), "b", 1},
		{"icon first", icon("a") + "," + unit + "," + unit, "a", 2},
		{"icon only", icon("a"), "a", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pod := podJSON("1", "1", `"infos":{"units":[`+tc.units+`]}`)
			result := mustParse(t, queryResultJSON(`"pods":[`+pod+`]`))
			info := result.Pods[0].Infos[0]
			if len(info.MeasurementUnits) != tc.count {
				t.Fatalf("expected %d units, got %+v", tc.count, info.MeasurementUnits)
			}
			want := &UnitIconSource{IconURL: "https://example.com/" + tc.icon + ".gif", Width: "10", Height: "20"}
			if diff := cmp.Diff(want, info.UnitIcon); diff != "" {
				t.Fatalf("unexpected icon (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPodsByPositionExtremes(t *testing.T) {
	result := &QueryResult{Pods: []Pod{
		{ID: "max", Position: math.MaxInt},
		{ID: "min", Position: math.MinInt},
		{ID: "zero", Position: 0},
	}}
	var ids []string
	for _, pod := range result.PodsByPosition() {
		ids = append(ids, pod.ID)
	}
	if diff := cmp.Diff([]string{"min", "zero", "max"}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestAssumptionSelected(t *testing.T) {
	options := []AssumptionOption{{Name: "Meal:Light"}, {Name: "Meal:Heavy"}}
	current := func(s string) *string { return &s }
	cases := []struct {
		current *string
		want    string
		ok      bool
	}{
		{nil, "", false},
		{current("1"), "Meal:Light", true},
		{current("2"), "Meal:Heavy", true},
		{current("0"), "", false},
		{current("3"), "", false},
		{current("Meal:Heavy"), "Meal:Heavy", true},
		{current("Meal:Medium"), "", false},
	}
	for _, tc := range cases {
		a := Assumption{Kind: "FormulaVariable", CurrentSelection: tc.current, Options: options}
		got, ok := a.Selected()
		if ok != tc.ok || got.Name != tc.want {
			t.Errorf("current=%v: got (%q, %v), want (%q, %v)", tc.current, got.Name, ok, tc.want, tc.ok)
		}
	}
}

func TestStateNodesMarshalKind(t *testing.T) {
	states := []StateNode{
		StateGroup{OptionCount: 1, DefaultValueLabel: "Last 5 years", Children: []StateLeaf{{Name: "Last 5 years", InputToken: "T__5"}}},
		StateLeaf{Name: "More", InputToken: "T__More"},
	}
	data, err := json.Marshal(states)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[0]["kind"] != "group" || decoded[1]["kind"] != "leaf" {
		t.Fatalf("expected group and leaf kinds, got %s", data)
	}
	if decoded[0]["option_count"] != float64(1) || decoded[1]["input_token"] != "T__More" {
		t.Fatalf("node fields missing: %s", data)
	}
	child := decoded[0]["children"].([]any)[0].(map[string]any)
	if child["kind"] != "leaf" || child["name"] != "Last 5 years" {
		t.Fatalf("unexpected child %v", child)
	}
}
