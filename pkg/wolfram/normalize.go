package wolfram

import (
	"strconv"

	"go.mau.fi/util/ptr"

	"github.com/u296/wolframalpha-api/pkg/wolfram/raw"
)

// collect flattens an optional single-or-array field into a non-nil slice.
func collect[T any](field *raw.OneOrMany[T]) []T {
	if field == nil {
		return []T{}
	}
	return items(*field)
}

func items[T any](field raw.OneOrMany[T]) []T {
	if field.Items == nil {
		return []T{}
	}
	return field.Items
}

// convert maps every element of in, stopping at the first error. Element paths are indexed
// under path only when upstream used the array shape, matching where the value sat.
func convert[In, Out any](in []In, path string, multi bool, fn func(In, string) (Out, error)) ([]Out, error) {
	out := make([]Out, 0, len(in))
	for i, item := range in {
		itemPath := path
		if multi {
			itemPath = raw.IndexPath(path, i)
		}
		v, err := fn(item, itemPath)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func convertMany[In, Out any](field *raw.OneOrMany[In], path string, fn func(In, string) (Out, error)) ([]Out, error) {
	if field == nil {
		return []Out{}, nil
	}
	return convert(items(*field), path, field.Multi, fn)
}

func normalizeQueryResult(r raw.QueryResult, path string) (QueryResult, error) {
	out := QueryResult{
		Success:       r.Success,
		NumPods:       r.NumPods,
		DataTypes:     r.DataTypes,
		TimedOut:      r.TimedOut,
		TimedOutPods:  r.TimedOutPods,
		Timing:        r.Timing,
		ParseTiming:   r.ParseTiming,
		ParseTimedOut: r.ParseTimedOut,
		Recalculate:   r.Recalculate,
		ID:            r.ID,
		ParseIDServer: ptr.Clone(r.ParseIDServer),
		Host:          r.Host,
		Server:        r.Server,
		Related:       r.Related,
		Version:       r.Version,
		InputString:   r.InputString,
		Error:         normalizeError(r.Error),
	}

	var err error
	out.Pods = []Pod{}
	if r.Pods != nil {
		out.Pods, err = convert(*r.Pods, raw.JoinPath(path, "pods"), true, normalizePod)
		if err != nil {
			return QueryResult{}, err
		}
	}
	out.Sources = normalizeSources(collect(r.Sources))
	out.Assumptions = normalizeAssumptions(collect(r.Assumptions))
	return out, nil
}

func normalizeError(field raw.ErrorField) *UpstreamError {
	if field.Err == nil {
		return nil
	}
	return &UpstreamError{Code: field.Err.Code, Message: field.Err.Msg}
}

func normalizePod(r raw.Pod, path string) (Pod, error) {
	out := Pod{
		Title:       r.Title,
		Scanner:     r.Scanner,
		ID:          r.ID,
		Position:    r.Position,
		IsError:     r.Error,
		SubpodCount: r.NumSubpods,
		IsPrimary:   ptr.Val(r.Primary),
		States:      normalizeStates(collect(r.States)),
		Definitions: normalizeDefinitions(collect(r.Definitions)),
	}

	var err error
	if out.Subpods, err = convert(r.Subpods, raw.JoinPath(path, "subpods"), true, normalizeSubPod); err != nil {
		return Pod{}, err
	}
	if out.Infos, err = convertMany(r.Infos, raw.JoinPath(path, "infos"), normalizeInfo); err != nil {
		return Pod{}, err
	}
	exprTypes := items(r.ExpressionTypes)
	out.ExpressionTypes = make([]ExpressionType, 0, len(exprTypes))
	for _, et := range exprTypes {
		out.ExpressionTypes = append(out.ExpressionTypes, ExpressionType{Name: et.Name})
	}
	return out, nil
}

func normalizeSubPod(r raw.SubPod, path string) (SubPod, error) {
	img, err := normalizeImage(r.Img, raw.JoinPath(path, "img"))
	if err != nil {
		return SubPod{}, err
	}
	infos, err := convertMany(r.Infos, raw.JoinPath(path, "infos"), normalizeInfo)
	if err != nil {
		return SubPod{}, err
	}
	out := SubPod{
		Title:          r.Title,
		IsPrimary:      ptr.Val(r.Primary),
		ImageSourceURL: ptr.Clone(r.ImageSource),
		MicroSources:   []string{},
		DataSources:    []string{},
		Image:          img,
		PlainText:      r.PlainText,
		Infos:          infos,
	}
	if r.MicroSources != nil {
		out.MicroSources = append(out.MicroSources, items(r.MicroSources.MicroSource)...)
	}
	if r.DataSources != nil {
		out.DataSources = append(out.DataSources, items(r.DataSources.DataSource)...)
	}
	return out, nil
}

func normalizeImage(r raw.Image, path string) (Image, error) {
	width, err := resolveInt(r.Width, raw.JoinPath(path, "width"))
	if err != nil {
		return Image{}, err
	}
	height, err := resolveInt(r.Height, raw.JoinPath(path, "height"))
	if err != nil {
		return Image{}, err
	}
	return Image{
		SourceURL:       r.Src,
		AltText:         r.Alt,
		Title:           r.Title,
		Width:           width,
		Height:          height,
		Kind:            ptr.Clone(r.Type),
		Themes:          ptr.Clone(r.Themes),
		ColorInvertible: ptr.Val(r.ColorInvertable),
		ContentType:     ptr.Clone(r.ContentType),
	}, nil
}

// resolveInt turns a number-or-string dimension into an int. A string that is not a decimal
// integer fails the whole parse; guessing a size would hide upstream drift.
func resolveInt(v raw.IntOrString, path string) (int, error) {
	if !v.IsText {
		return v.Num, nil
	}
	n, err := strconv.Atoi(v.Text)
	if err != nil {
		return 0, raw.Violation(path, "numeric string %q is not an integer", v.Text)
	}
	return n, nil
}

func normalizeStates(entries []raw.StateEntry) []StateNode {
	out := make([]StateNode, 0, len(entries))
	for _, entry := range entries {
		switch {
		case entry.Leaf != nil:
			out = append(out, normalizeStateLeaf(*entry.Leaf))
		case entry.Group != nil:
			children := make([]StateLeaf, 0, len(entry.Group.States))
			for _, child := range entry.Group.States {
				children = append(children, normalizeStateLeaf(child))
			}
			out = append(out, StateGroup{
				OptionCount:       entry.Group.Count,
				DefaultValueLabel: entry.Group.Value,
				Delimiter:         entry.Group.Delimiters,
				Children:          children,
			})
		}
	}
	return out
}

func normalizeStateLeaf(r raw.State) StateLeaf {
	return StateLeaf{Name: r.Name, InputToken: r.Input, IsStepByStep: ptr.Val(r.StepByStep)}
}

func normalizeInfo(r raw.Info, path string) (Info, error) {
	out := Info{
		MeasurementUnits: []MeasurementUnit{},
		DescriptiveText:  ptr.Clone(r.Text),
		Links:            normalizeLinks(collect(r.Links)),
	}
	if r.Units != nil {
		out.MeasurementUnits, out.UnitIcon = partitionUnits(*r.Units)
	}
	if r.Img != nil {
		img, err := normalizeImage(*r.Img, raw.JoinPath(path, "img"))
		if err != nil {
			return Info{}, err
		}
		out.Image = &img
	}
	return out, nil
}

// partitionUnits splits the mixed units array by the shape of each entry. Position is
// irrelevant; when several icon sources appear the last one wins.
func partitionUnits(entries []raw.UnitsEntry) ([]MeasurementUnit, *UnitIconSource) {
	units := []MeasurementUnit{}
	var icon *UnitIconSource
	for _, entry := range entries {
		switch {
		case entry.Units != nil:
			for _, u := range items(*entry.Units) {
				units = append(units, MeasurementUnit{ShortLabel: u.Short, LongLabel: u.Long})
			}
		case entry.Source != nil:
			icon = &UnitIconSource{
				IconURL: entry.Source.Src,
				Width:   entry.Source.Width,
				Height:  entry.Source.Height,
			}
		}
	}
	return units, icon
}

func normalizeLinks(in []raw.Link) []Link {
	out := make([]Link, 0, len(in))
	for _, l := range in {
		out = append(out, Link{URL: l.URL, DisplayText: l.Text, Title: ptr.Clone(l.Title)})
	}
	return out
}

func normalizeDefinitions(in []raw.Definition) []Definition {
	out := make([]Definition, 0, len(in))
	for _, d := range in {
		out = append(out, Definition{Term: d.Word, Description: d.Desc})
	}
	return out
}

func normalizeSources(in []raw.Source) []Source {
	out := make([]Source, 0, len(in))
	for _, s := range in {
		out = append(out, Source{URL: s.URL, DisplayText: s.Text})
	}
	return out
}

func normalizeAssumptions(in []raw.Assumption) []Assumption {
	out := make([]Assumption, 0, len(in))
	for _, a := range in {
		values := items(a.Values)
		options := make([]AssumptionOption, 0, len(values))
		for _, v := range values {
			options = append(options, AssumptionOption{
				Name:        v.Name,
				Description: v.Desc,
				IsValid:     normalizeBoolOrText(v.Valid),
				InputToken:  v.Input,
			})
		}
		out = append(out, Assumption{
			Kind:             a.Type,
			Word:             ptr.Clone(a.Word),
			Description:      ptr.Clone(a.Desc),
			CurrentSelection: ptr.Clone(a.Current),
			Template:         ptr.Clone(a.Template),
			OptionCount:      a.Count,
			Options:          options,
		})
	}
	return out
}

// normalizeBoolOrText keeps every textual token verbatim, including "true" and "false".
func normalizeBoolOrText(r *raw.BoolOrText) *BoolOrText {
	if r == nil {
		return nil
	}
	if r.IsText {
		return &BoolOrText{Text: r.Text, IsText: true}
	}
	return &BoolOrText{Bool: r.Bool}
}
